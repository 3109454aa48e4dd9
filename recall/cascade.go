package recall

import "github.com/rushteam/nextbasket/core"

// Cascade 把多个候选源串成降级链：按顺序尝试，第一个非空结果胜出。
// serving 用它在隐向量召回后面挂共现召回：历史与训练词表无交集的客户
// 落到共现表，而不是直接空手而归。
type Cascade []CandidateRecommender

// Recommend 实现 CandidateRecommender。全部源为空时返回空列表。
func (c Cascade) Recommend(record *core.ClientRecord, excludeSeen bool, n int) []ScoredProduct {
	for _, r := range c {
		if r == nil {
			continue
		}
		if scored := r.Recommend(record, excludeSeen, n); len(scored) > 0 {
			return scored
		}
	}
	return nil
}
