// nextbasket 是在线推荐服务：启动时一次性加载训练产物（商品向量、共现表、
// 门店统计、商品目录、热门榜），之后全部状态只读，请求并发处理无需加锁。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/nextbasket/config"
	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/factorize"
	"github.com/rushteam/nextbasket/feature"
	"github.com/rushteam/nextbasket/filter"
	"github.com/rushteam/nextbasket/index"
	"github.com/rushteam/nextbasket/model"
	"github.com/rushteam/nextbasket/recall"
	"github.com/rushteam/nextbasket/recommender"
	"github.com/rushteam/nextbasket/store"
)

func main() {
	configPath := flag.String("config", "configs/serve.yaml", "服务配置文件")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.LoadServeConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	rec, err := buildRecommender(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load artifacts")
	}
	logger.Info().Msg("ready")

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: (&server{rec: rec, logger: logger}).routes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()
	logger.Info().Str("addr", cfg.Addr).Msg("listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

// buildRecommender 加载全部训练产物并组装 serving 链路。
// 配置了 Redis 时优先从集中存储取向量表与热门榜，失败退回文件；
// Redis 只在启动加载期使用，之后全部状态都在进程内存里。
func buildRecommender(cfg *config.ServeConfig, logger zerolog.Logger) (*recommender.Recommender, error) {
	reference, err := cfg.Reference()
	if err != nil {
		return nil, err
	}
	ctx := context.Background()

	var kv core.KeyValueStore
	if cfg.Redis != nil {
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, loading artifacts from files")
		} else {
			kv = rs
			defer rs.Close()
		}
	}

	vectors, err := loadVectors(ctx, cfg, kv, logger)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("products", len(vectors)).Msg("loaded item vectors")

	cooc, err := loadCooc(cfg.Path(cfg.CoocFile))
	if err != nil {
		return nil, err
	}
	logger.Info().Int("products", cooc.Len()).Msg("loaded cooc table")

	stats, err := loadStoreStats(cfg.Path(cfg.StoreStatsFile))
	if err != nil {
		return nil, err
	}
	stats.Optimize()

	catalog, err := feature.LoadCatalog(cfg.Path(cfg.ProductsFile))
	if err != nil {
		return nil, err
	}
	logger.Info().Int("products", catalog.Len()).Msg("loaded catalog")

	popular, err := loadPopular(ctx, cfg, kv, logger)
	if err != nil {
		return nil, err
	}

	products := make([]string, 0, len(vectors))
	for id := range vectors {
		products = append(products, id)
	}
	// 隐向量召回为主，向量覆盖不到的客户降级到共现召回
	candidates := recall.Cascade{
		&recall.Implicit{
			Vectors:  vectors,
			Products: index.NewProductIdMap(products),
			Weight:   index.RecencyDecayWeight(reference),
			TopK:     cfg.NumCandidates,
		},
		&recall.Cooc{Table: cooc, TopK: cfg.NumCandidates},
	}

	filters, err := filter.NewRuleFilters(cfg.Rules)
	if err != nil {
		return nil, err
	}

	return &recommender.Recommender{
		Assembler: &feature.Assembler{
			Vectors:       vectors,
			Candidates:    candidates,
			StoreStats:    stats,
			ReferenceTime: reference,
			NumCandidates: cfg.NumCandidates,
		},
		Catalog: catalog,
		Model:   buildModel(cfg, logger),
		Filters: filters,
		Popular: popular,
		Limit:   cfg.Limit,
		Logger:  logger,
	}, nil
}

// buildModel 按优先级选择排序模型：外部服务 > 本地 LR > 无模型（候选顺序直出）。
func buildModel(cfg *config.ServeConfig, logger zerolog.Logger) model.RankModel {
	if cfg.Ranker.Endpoint != "" {
		timeout := time.Duration(cfg.Ranker.TimeoutSeconds) * time.Second
		return model.NewRPCModel("ranker", cfg.Ranker.Endpoint, timeout)
	}
	if cfg.Ranker.LRModelFile != "" {
		lr, err := model.LoadLRModel(cfg.Path(cfg.Ranker.LRModelFile))
		if err != nil {
			logger.Warn().Err(err).Msg("load lr model, candidates will keep recall order")
			return nil
		}
		return lr
	}
	return nil
}

// loadVectors 优先从 Redis 的向量 Hash 读取，缺失或失败时退回文件。
func loadVectors(ctx context.Context, cfg *config.ServeConfig, kv core.KeyValueStore, logger zerolog.Logger) (factorize.ItemVectors, error) {
	if kv != nil {
		vectors, err := factorize.LoadItemVectorsStore(ctx, kv, store.KeyItemVectors)
		if err == nil && len(vectors) > 0 {
			return vectors, nil
		}
		logger.Warn().Err(err).Msg("load vectors from store failed, falling back to file")
	}
	return factorize.LoadItemVectors(cfg.Path(cfg.VectorsFile))
}

func loadCooc(path string) (*index.CoocTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cooc := index.NewCoocTable()
	if err := json.Unmarshal(data, cooc); err != nil {
		return nil, err
	}
	return cooc, nil
}

func loadStoreStats(path string) (*index.ProductStoreStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	stats := index.NewProductStoreStats()
	if err := json.Unmarshal(data, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// loadPopular 优先从 Redis 热门榜读取，失败或未配置时退回文件。
func loadPopular(ctx context.Context, cfg *config.ServeConfig, kv core.KeyValueStore, logger zerolog.Logger) ([]string, error) {
	var fileIDs []string
	if data, err := os.ReadFile(cfg.Path(cfg.PopularFile)); err == nil {
		if err := json.Unmarshal(data, &fileIDs); err != nil {
			return nil, err
		}
	}

	if kv == nil {
		return fileIDs, nil
	}
	hot := &recall.Hot{Store: kv, Key: store.KeyHotProducts, IDs: fileIDs, TopK: cfg.Limit * 4}
	ids := hot.List(ctx)
	if len(ids) == 0 {
		logger.Warn().Msg("popular list empty in store, using file copy")
		return fileIDs, nil
	}
	return ids, nil
}
