// nextbasket-train 是离线训练任务：读取语料、训练商品隐向量、构建共现表
// 与门店统计、统计热门榜，并导出排序模型的训练特征。
// 离线路径上的任何错误都是致命的：宁可中止任务，也不产出半套不一致的产物。
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/nextbasket/config"
	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/dataset"
	"github.com/rushteam/nextbasket/eval"
	"github.com/rushteam/nextbasket/factorize"
	"github.com/rushteam/nextbasket/feature"
	"github.com/rushteam/nextbasket/index"
	"github.com/rushteam/nextbasket/recall"
	"github.com/rushteam/nextbasket/store"
)

func main() {
	configPath := flag.String("config", "configs/train.yaml", "训练配置文件")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadTrainConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	reference, err := cfg.Reference()
	if err != nil {
		logger.Fatal().Err(err).Msg("reference time")
	}

	train, test, err := dataset.ReadClientPurchases(
		cfg.Path(cfg.ClientPurchasesFile), cfg.ClientOffset, cfg.ClientLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("read corpus")
	}
	logger.Info().Int("clients", len(train)).Int("offset", cfg.ClientOffset).Msg("read corpus")

	products := index.ProductIdMapFromRecords(train)
	logger.Info().Int("vocabulary", products.Len()).Msg("built product id map")

	// 共现表与门店统计按客户分片并行构建，与向量训练互不依赖
	var (
		cooc  *index.CoocTable
		stats *index.ProductStoreStats
	)
	eg, ctx := errgroup.WithContext(context.Background())
	eg.Go(func() error {
		var err error
		cooc, err = dataset.BuildCoocParallel(ctx, train, cfg.Workers)
		return err
	})
	eg.Go(func() error {
		var err error
		stats, err = dataset.BuildStoreStatsParallel(ctx, train, cfg.Workers)
		return err
	})

	weight := index.RecencyDecayWeight(reference)
	mat := index.NewInteractionBuilder(products, weight).Build(train)
	logger.Info().Int("nnz", mat.NNZ()).Msg("built interaction matrix")

	adapter := &factorize.Adapter{
		Model:       &factorize.ALS{Seed: 42},
		Products:    products,
		Orientation: factorize.ItemsOnColumns,
	}
	vectors, err := adapter.Fit(mat, cfg.Implicit.NumFactors, cfg.Implicit.Epochs)
	if err != nil {
		logger.Fatal().Err(err).Msg("factorize")
	}
	logger.Info().Int("products", len(vectors)).Int("rank", vectors.Rank()).Msg("trained item vectors")

	if err := eg.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("build indexes")
	}

	coPairs, unrelated := orientationProbes(cooc, products)
	if !factorize.VerifyOrientation(vectors, coPairs, unrelated) {
		logger.Fatal().Msg("item vector orientation check failed, factors axis is wrong")
	}

	if err := vectors.Save(cfg.Path(cfg.VectorsFile)); err != nil {
		logger.Fatal().Err(err).Msg("save vectors")
	}
	if err := saveJSON(cfg.Path(cfg.CoocFile), cooc); err != nil {
		logger.Fatal().Err(err).Msg("save cooc")
	}
	if err := saveJSON(cfg.Path(cfg.StoreStatsFile), stats); err != nil {
		logger.Fatal().Err(err).Msg("save store stats")
	}
	popular := popularProducts(train, cfg.PopularK)
	if err := saveJSON(cfg.Path(cfg.PopularFile), popular); err != nil {
		logger.Fatal().Err(err).Msg("save popular list")
	}
	logger.Info().Int("popular", len(popular)).Msg("saved indexes")

	if cfg.Redis != nil {
		if err := publishToStore(cfg.Redis, vectors, popular); err != nil {
			logger.Fatal().Err(err).Msg("publish artifacts to redis")
		}
		logger.Info().Msg("published vectors and popular list to redis")
	}

	// 商品目录：左连接训练语料的全局聚合后落盘，serving 直接加载 enriched 版
	catalog, err := feature.LoadCatalog(cfg.Path(cfg.ProductsFile))
	if err != nil {
		logger.Fatal().Err(err).Msg("load products")
	}
	catalog.ApplyAggregates(feature.BuildProductAggregates(train, reference))
	if err := catalog.SaveCSV(cfg.Path(cfg.ProductsEnrichedFile)); err != nil {
		logger.Fatal().Err(err).Msg("save enriched products")
	}

	// 训练特征：与 serving 完全相同的组装路径
	assembler := &feature.Assembler{
		Vectors: vectors,
		Candidates: &recall.Implicit{
			Vectors:  vectors,
			Products: products,
			Weight:   weight,
			TopK:     feature.DefaultNumCandidates,
		},
		StoreStats:    stats,
		ReferenceTime: reference,
	}
	rows := assembler.Assemble(train)
	catalog.Enrich(rows)

	targets := dataset.Targets(test)
	if err := dataset.WriteFeaturesCSV(cfg.Path(cfg.FeaturesFile), rows, dataset.TargetSet(targets)); err != nil {
		logger.Fatal().Err(err).Msg("save features")
	}
	if err := dataset.WriteGTCountsCSV(cfg.Path(cfg.GTCountFile), dataset.GTCounts(targets)); err != nil {
		logger.Fatal().Err(err).Msg("save gt counts")
	}

	meanNAP, evaluated := evaluateCandidates(assembler.Candidates, train, targets)
	logger.Info().
		Float64("mean_nap", meanNAP).
		Int("evaluated", evaluated).
		Msg("candidate recall offline evaluation")

	logger.Info().Int("rows", len(rows)).Int("targets", len(targets)).Msg("done")
}

// evaluateCandidates 对留出期正样本计算候选召回的 mean NAP@30。
// 这是训练产物的冒烟指标：向量方向或权重策略错了，这里会直接掉到接近 0。
func evaluateCandidates(candidates recall.CandidateRecommender, train []*core.ClientRecord, targets []dataset.Target) (float64, int) {
	actualByClient := make(map[string][]string)
	for _, tgt := range targets {
		actualByClient[tgt.ClientID] = append(actualByClient[tgt.ClientID], tgt.ProductID)
	}

	var (
		napSum    float64
		evaluated int
	)
	for _, record := range train {
		actual := actualByClient[record.ClientID]
		if len(actual) == 0 {
			continue
		}
		scored := candidates.Recommend(record, false, eval.DefaultK)
		recommended := make([]string, len(scored))
		for i, s := range scored {
			recommended[i] = s.ProductID
		}
		napSum += eval.NormalizedAveragePrecision(actual, recommended, eval.DefaultK)
		evaluated++
	}
	if evaluated == 0 {
		return 0, 0
	}
	return napSum / float64(evaluated), evaluated
}

// orientationProbes 从共现表采样探针对：共现次数最高的对子 vs 零共现的对子。
func orientationProbes(cooc *index.CoocTable, products *index.ProductIdMap) (coPairs, unrelated [][2]string) {
	vocab := products.Products()
	for _, a := range vocab {
		if len(coPairs) >= 50 {
			break
		}
		neighbors := cooc.Neighbors(a)
		for b, count := range neighbors {
			if count >= 2 {
				coPairs = append(coPairs, [2]string{a, b})
				break
			}
		}
	}
	for i := 0; i < len(vocab) && len(unrelated) < 50; i++ {
		a := vocab[i]
		b := vocab[len(vocab)-1-i]
		if a != b && cooc.Count(a, b) == 0 {
			unrelated = append(unrelated, [2]string{a, b})
		}
	}
	return coPairs, unrelated
}

// popularProducts 统计全局购买次数 TopK，作为 serving 兜底榜。
func popularProducts(records []*core.ClientRecord, k int) []string {
	counts := make(map[string]int)
	for _, record := range records {
		for _, id := range record.ProductIDs() {
			counts[id]++
		}
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if k > 0 && len(ids) > k {
		ids = ids[:k]
	}
	return ids
}

// publishToStore 把向量表与热门榜发布到 Redis，serving 启动时优先从这里加载。
// 热门榜写成有序集合，score 取名次的倒数序，ZRange 降序读出即原始顺序。
func publishToStore(cfg *config.RedisConfig, vectors factorize.ItemVectors, popular []string) error {
	kv, err := store.NewRedisStore(cfg.Addr, cfg.Password, cfg.DB, cfg.Prefix)
	if err != nil {
		return err
	}
	defer kv.Close()

	ctx := context.Background()
	if err := vectors.SaveToStore(ctx, kv, store.KeyItemVectors); err != nil {
		return err
	}
	for i, id := range popular {
		if err := kv.ZAdd(ctx, store.KeyHotProducts, float64(len(popular)-i), id); err != nil {
			return err
		}
	}
	return nil
}

func saveJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
