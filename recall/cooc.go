package recall

import (
	"context"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/index"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/utils"
)

// Cooc 是基于共现表的召回源："买过 A 的篮子里还出现过什么"。
//
// 算法：对客户买过的每个商品（按购买次数重复累计），查它的共现邻居并
// 累加共现次数，返回累计值最高的商品。冷启动商品没有邻居，贡献为空。
type Cooc struct {
	Table *index.CoocTable
	TopK  int
}

func (r *Cooc) Name() string        { return "recall.cooc" }
func (r *Cooc) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Cooc) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Cooc) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Table == nil || rctx == nil {
		return nil, nil
	}
	scored := r.Recommend(rctx.Record(), false, r.TopK)
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ProductID)
		it.Score = s.Score
		it.PutLabel("recall_source", utils.Label{Value: "cooc", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Recommend 实现 CandidateRecommender。
// 历史为空或全部商品不在共现表中时返回空列表，不报错。
func (r *Cooc) Recommend(record *core.ClientRecord, excludeSeen bool, n int) []ScoredProduct {
	if r.Table == nil || record.Empty() {
		return nil
	}

	acc := make(map[string]float64)
	for _, productID := range record.ProductIDs() {
		for neighbor, count := range r.Table.Neighbors(productID) {
			acc[neighbor] += float64(count)
		}
	}
	if len(acc) == 0 {
		return nil
	}

	var seen map[string]struct{}
	if excludeSeen {
		seen = seenSet(record)
	}
	scored := make([]ScoredProduct, 0, len(acc))
	for id, score := range acc {
		if seen != nil {
			if _, ok := seen[id]; ok {
				continue
			}
		}
		scored = append(scored, ScoredProduct{ProductID: id, Score: score})
	}
	return topN(scored, n)
}
