package dataset

import "github.com/rushteam/nextbasket/core"

// MaxGTCount 是单客户 ground-truth 商品数的封顶值，与推荐列表长度上限一致。
const MaxGTCount = 30

// Target 是一条正样本：客户在留出期第一笔交易里买了这个商品。
type Target struct {
	ClientID  string
	ProductID string
}

// Targets 从留出历史提取正样本：每个客户只取留出期的第一笔交易。
// 空历史客户不产生样本。
func Targets(holdouts []*core.ClientRecord) []Target {
	var out []Target
	for _, record := range holdouts {
		if record.Empty() {
			continue
		}
		first := record.History[0]
		for _, p := range first.Products {
			out = append(out, Target{ClientID: record.ClientID, ProductID: p.ProductID})
		}
	}
	return out
}

// TargetSet 把正样本转成 (client, product) 查找集合，特征导出时打 target 列用。
func TargetSet(targets []Target) map[Target]bool {
	set := make(map[Target]bool, len(targets))
	for _, t := range targets {
		set[t] = true
	}
	return set
}

// GTCounts 统计每个客户的 ground-truth 商品数，封顶 MaxGTCount。
// 评估时作为归一化分母。
func GTCounts(targets []Target) map[string]int {
	counts := make(map[string]int)
	for _, t := range targets {
		if counts[t.ClientID] < MaxGTCount {
			counts[t.ClientID]++
		}
	}
	return counts
}
