package core

import "github.com/rushteam/nextbasket/pkg/utils"

// Item 是推荐链路中的统一承载结构：一个候选商品的特征、分数、元信息、标签。
// Features 的列集合由 feature 包固定（每行列完全一致）；Score 用于排序决策；
// Labels 用于解释与规则过滤（召回来源、品类标记等）。
type Item struct {
	ID       string // 商品外部 ID（字符串，持久化一律用它，不用稠密下标）
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
