package rerank

import (
	"context"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/utils"
)

// PopularFallback 是兜底补位节点：在排好序的候选后面追加全局热门列表
// （追加而非替换），按首次出现去重，再截断到 Limit。
// 这保证响应永远非空、永远有界，哪怕上游候选为空。
type PopularFallback struct {
	Popular []string // 全局热门商品 ID，按热度降序
	Limit   int      // <= 0 表示不截断
}

func (n *PopularFallback) Name() string        { return "rerank.fallback" }
func (n *PopularFallback) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *PopularFallback) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items)+len(n.Popular))
	seen := make(map[string]bool, len(items)+len(n.Popular))

	for _, it := range items {
		if it == nil || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
		if n.Limit > 0 && len(out) == n.Limit {
			return out, nil
		}
	}
	for _, id := range n.Popular {
		if seen[id] {
			continue
		}
		seen[id] = true
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "popular_fallback", Source: "rerank"})
		out = append(out, it)
		if n.Limit > 0 && len(out) == n.Limit {
			break
		}
	}
	return out, nil
}

// MergeWithPopular 是兜底补位的纯函数形式：candidates 追加 popular、
// 按首次出现去重、截断到 limit。limit <= 0 表示不截断。
// Recommender 和节点共用。
func MergeWithPopular(candidates, popular []string, limit int) []string {
	capHint := limit
	if capHint < 0 {
		capHint = 0
	}
	out := make([]string, 0, capHint)
	seen := make(map[string]bool, len(candidates)+len(popular))
	appendAll := func(ids []string) bool {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			if limit > 0 && len(out) == limit {
				return true
			}
		}
		return false
	}
	if appendAll(candidates) {
		return out
	}
	appendAll(popular)
	return out
}
