package recall

import (
	"context"
	"encoding/json"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/utils"
)

// Hot 是全局热门召回源，也是整条链路的兜底列表来源。
// - 如果 Store 实现了 KeyValueStore，优先使用 ZRange（有序集合，按销量降序）
// - 否则从普通 key 读取 JSON 数组
// - Store 不可用或为空时，使用内存中的 IDs 作为 fallback
// Hot 同时实现 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Hot struct {
	Store core.Store
	Key   string   // 存储 key，例如 "hot:products"
	IDs   []string // fallback 内存列表（训练期产出的全局热销榜）
	TopK  int      // 0 表示全部
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。
func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	ids := r.List(ctx)
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "hot", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// List 返回热门商品 ID 列表（已按热度降序）。Store 读取失败时静默退回内存列表：
// 兜底列表本身不允许再失败。
func (r *Hot) List(ctx context.Context) []string {
	var ids []string

	if r.Store != nil && r.Key != "" {
		stop := int64(99)
		if r.TopK > 0 {
			stop = int64(r.TopK) - 1
		}
		if kvStore, ok := r.Store.(core.KeyValueStore); ok {
			members, err := kvStore.ZRange(ctx, r.Key, 0, stop)
			if err == nil && len(members) > 0 {
				ids = members
			}
		} else {
			data, err := r.Store.Get(ctx, r.Key)
			if err == nil {
				var parsed []string
				if json.Unmarshal(data, &parsed) == nil {
					ids = parsed
				}
			}
		}
	}

	if len(ids) == 0 {
		ids = r.IDs
	}
	if r.TopK > 0 && len(ids) > r.TopK {
		ids = ids[:r.TopK]
	}
	return ids
}
