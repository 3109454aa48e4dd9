package recall

import (
	"context"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/utils"
)

// PopularHistory 召回客户自己买过次数最多的商品。
// 复购是零售场景最强的信号：客户下一篮的大部分商品都是回头购买。
type PopularHistory struct {
	TopK int
}

func (r *PopularHistory) Name() string        { return "recall.history" }
func (r *PopularHistory) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *PopularHistory) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *PopularHistory) Recall(
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
		it.PutLabel("recall_source", utils.Label{Value: "history", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Recommend 实现 CandidateRecommender：按购买次数降序返回客户买过的商品。
// excludeSeen 对自购历史没有意义（全部都是 seen），为 true 时返回空。
func (r *PopularHistory) Recommend(record *core.ClientRecord, excludeSeen bool, n int) []ScoredProduct {
	if record.Empty() || excludeSeen {
		return nil
	}
	counts := make(map[string]float64)
	for _, id := range record.ProductIDs() {
		counts[id]++
	}
	scored := make([]ScoredProduct, 0, len(counts))
	for id, c := range counts {
		scored = append(scored, ScoredProduct{ProductID: id, Score: c})
	}
	return topN(scored, n)
}
