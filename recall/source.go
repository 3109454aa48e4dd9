// Package recall 提供候选商品生成：热门兜底、客户自购历史、共现表、隐向量打分。
// 各召回源同时实现 Source（pipeline 视角）和 CandidateRecommender（特征组装视角）。
package recall

import (
	"context"
	"sort"

	"github.com/rushteam/nextbasket/core"
)

// Source 是召回源接口：根据请求上下文生成候选商品。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// ScoredProduct 是候选商品及其召回分数。
type ScoredProduct struct {
	ProductID string
	Score     float64
}

// CandidateRecommender 是候选生成的统一契约（特征组装与离线评估使用）。
// 客户历史与训练词表无交集时返回空列表，不报错。
type CandidateRecommender interface {
	// Recommend 返回按分数降序排列的候选列表。
	// excludeSeen 为 true 时剔除客户已购买过的商品；n 为候选上限。
	Recommend(record *core.ClientRecord, excludeSeen bool, n int) []ScoredProduct
}

// topN 按分数降序取前 n 个；分数相同按商品 ID 升序，保证结果可复现。
func topN(scored []ScoredProduct, n int) []ScoredProduct {
	sortScored(scored)
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func sortScored(scored []ScoredProduct) {
	sort.SliceStable(scored, func(i, j int) bool {
		return less(scored[i], scored[j])
	})
}

func less(a, b ScoredProduct) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ProductID < b.ProductID
}

func seenSet(record *core.ClientRecord) map[string]struct{} {
	seen := make(map[string]struct{})
	for _, id := range record.ProductIDs() {
		seen[id] = struct{}{}
	}
	return seen
}
