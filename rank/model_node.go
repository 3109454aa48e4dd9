// Package rank 提供排序节点：用 RankModel 给候选打分并按分数降序排列。
package rank

import (
	"context"
	"sort"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/model"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/utils"
)

// ModelNode 是使用 RankModel 的排序 Node。
// - 模型实现 BatchRankModel 时走批量接口（远程服务一次打完整个候选集合）
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序稳定排序
type ModelNode struct {
	Model model.RankModel
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	if batch, ok := n.Model.(model.BatchRankModel); ok {
		featuresList := make([]map[string]float64, 0, len(items))
		idx := make([]int, 0, len(items))
		for i, it := range items {
			if it == nil {
				continue
			}
			featuresList = append(featuresList, it.Features)
			idx = append(idx, i)
		}
		scores, err := batch.PredictBatch(featuresList)
		if err != nil {
			return nil, err
		}
		for j, i := range idx {
			items[i].Score = scores[j]
			items[i].PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
		}
	} else {
		for _, it := range items {
			if it == nil {
				continue
			}
			score, err := n.Model.Predict(it.Features)
			if err != nil {
				return nil, err
			}
			it.Score = score
			it.PutLabel("rank_model", utils.Label{Value: n.Model.Name(), Source: "rank"})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
