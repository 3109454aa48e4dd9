package filter

import (
	"context"
	"encoding/json"

	"github.com/rushteam/nextbasket/core"
)

// BlacklistFilter 过滤下架/禁售商品。
// 内存列表与存储二选一或叠加：存储里的 key 存 JSON 数组，读失败时
// 只用内存列表，不影响请求。
type BlacklistFilter struct {
	ProductIDs []string
	Store      core.Store
	Key        string

	memory map[string]bool
}

// NewBlacklistFilter 创建黑名单过滤器。
func NewBlacklistFilter(productIDs []string, store core.Store, key string) *BlacklistFilter {
	memory := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		memory[id] = true
	}
	return &BlacklistFilter{
		ProductIDs: productIDs,
		Store:      store,
		Key:        key,
		memory:     memory,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.memory[item.ID] {
		return true, nil
	}
	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err == nil {
			var ids []string
			if json.Unmarshal(data, &ids) == nil {
				for _, id := range ids {
					if item.ID == id {
						return true, nil
					}
				}
			}
		}
	}
	return false, nil
}
