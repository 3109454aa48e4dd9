package recall

import (
	"context"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/factorize"
	"github.com/rushteam/nextbasket/index"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/utils"
)

// Implicit 是基于隐向量的召回源：
// 用与训练一致的权重策略构建客户的单行加权交互向量，折算成客户向量后
// 对商品向量表全量打分（向量点积），取 TopK。
//
// Scorer 是外部分解库打分例程的契约；不注入时使用 DotScorer（加权质心点积）。
// 打分语义必须与训练离线特征位等一致（bit-reproducible），serving 与训练
// 共用同一实现。
type Implicit struct {
	Vectors  factorize.ItemVectors
	Products *index.ProductIdMap
	Weight   index.WeightFunc
	Scorer   Scorer
	TopK     int
}

// Scorer 根据客户稀疏交互行对全部商品打分。
type Scorer interface {
	// Score 返回候选 (商品稠密下标 → 分数)；row 为空时返回 nil。
	Score(row []index.Cell) map[int]float64
}

func (r *Implicit) Name() string        { return "recall.implicit" }
func (r *Implicit) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Implicit) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Implicit) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	scored := r.Recommend(rctx.Record(), false, r.TopK)
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ProductID)
		it.Score = s.Score
		it.PutLabel("recall_source", utils.Label{Value: "implicit", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Recommend 实现 CandidateRecommender。
// 客户历史与训练词表没有交集时返回空列表，不报错。
func (r *Implicit) Recommend(record *core.ClientRecord, excludeSeen bool, n int) []ScoredProduct {
	if r.Vectors == nil || r.Products == nil || record.Empty() {
		return nil
	}

	weight := r.Weight
	if weight == nil {
		weight = index.CountWeight()
	}
	builder := index.NewInteractionBuilder(r.Products, weight)
	row := builder.BuildRow(record)
	if len(row) == 0 {
		return nil
	}

	scorer := r.Scorer
	if scorer == nil {
		scorer = &DotScorer{Vectors: r.Vectors, Products: r.Products}
	}
	scores := scorer.Score(row)
	if len(scores) == 0 {
		return nil
	}

	var seen map[string]struct{}
	if excludeSeen {
		seen = seenSet(record)
	}
	scored := make([]ScoredProduct, 0, len(scores))
	for id, score := range scores {
		productID, err := r.Products.ToProduct(id)
		if err != nil {
			continue
		}
		if seen != nil {
			if _, ok := seen[productID]; ok {
				continue
			}
		}
		scored = append(scored, ScoredProduct{ProductID: productID, Score: score})
	}
	return topN(scored, n)
}

// DotScorer 是默认打分例程：客户向量取加权质心，再与全部商品向量做点积。
type DotScorer struct {
	Vectors  factorize.ItemVectors
	Products *index.ProductIdMap
}

func (s *DotScorer) Score(row []index.Cell) map[int]float64 {
	if len(row) == 0 {
		return nil
	}
	rank := s.Vectors.Rank()
	if rank == 0 {
		return nil
	}

	// 客户向量：交互行对商品向量的加权平均（缺向量的商品跳过）
	userVec := make([]float64, rank)
	var total float64
	for _, cell := range row {
		productID, err := s.Products.ToProduct(cell.Col)
		if err != nil {
			continue
		}
		vec, ok := s.Vectors[productID]
		if !ok {
			continue
		}
		for i := range userVec {
			userVec[i] += cell.Weight * vec[i]
		}
		total += cell.Weight
	}
	if total == 0 {
		return nil
	}
	for i := range userVec {
		userVec[i] /= total
	}

	scores := make(map[int]float64, len(s.Vectors))
	for productID, vec := range s.Vectors {
		id, err := s.Products.ToID(productID)
		if err != nil {
			continue
		}
		var sum float64
		for i := range userVec {
			sum += userVec[i] * vec[i]
		}
		scores[id] = sum
	}
	return scores
}
