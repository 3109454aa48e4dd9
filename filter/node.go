package filter

import (
	"context"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/utils"
)

// FilterNode 是过滤 Node，组合多个过滤器。
// 任何一个过滤器返回 true，该物品就被移除。
// 过滤器自身出错时跳过该过滤器、保留物品：过滤是锦上添花，
// 不能因为规则引擎故障丢掉候选。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filtered := false
		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				continue
			}
			if ok {
				filtered = true
				reason = f.Name()
				break
			}
		}

		if filtered {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
