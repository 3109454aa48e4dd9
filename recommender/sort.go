package recommender

import (
	"sort"

	"github.com/rushteam/nextbasket/core"
)

// sortByScore 按分数降序稳定排序，分数相同保持原顺序（组装顺序确定，
// 所以整条链路结果可复现）。
func sortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
