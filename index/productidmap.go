// Package index 构建离线索引：商品 ID 映射、稀疏交互矩阵、共现表、商品×门店统计。
//
// 所有索引内部可以用稠密下标换内存，但对外持久化一律以商品/门店的外部字符串 ID
// 为键——稠密下标在两次训练之间不保证稳定。
package index

import (
	"sort"

	"github.com/rushteam/nextbasket/core"
)

// ProductIdMap 是商品外部 ID 与稠密下标的双向映射。
// 从训练语料观察到的商品全集构建一次；为了可复现，构建前先排序去重。
type ProductIdMap struct {
	idToProduct []string
	productToID map[string]int
}

// NewProductIdMap 从商品 ID 列表构建映射（排序 + 去重）。
func NewProductIdMap(productIDs []string) *ProductIdMap {
	uniq := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		uniq[id] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for id := range uniq {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	m := &ProductIdMap{
		idToProduct: sorted,
		productToID: make(map[string]int, len(sorted)),
	}
	for i, id := range sorted {
		m.productToID[id] = i
	}
	return m
}

// ProductIdMapFromRecords 枚举交易语料中出现过的商品全集并构建映射。
func ProductIdMapFromRecords(records []*core.ClientRecord) *ProductIdMap {
	var ids []string
	for _, record := range records {
		if record == nil {
			continue
		}
		ids = append(ids, record.ProductIDs()...)
	}
	return NewProductIdMap(ids)
}

// ErrProductNotFound 表示商品不在训练词表中（冷启动商品）。
// 调用方必须捕获并降级为中性分数，不得向上传播。
var ErrProductNotFound = core.NewDomainError(core.ModuleIndex, core.ErrorCodeNotFound, "index: product not in vocabulary")

// ToID 返回商品的稠密下标；未见过的商品返回 ErrProductNotFound。
func (m *ProductIdMap) ToID(productID string) (int, error) {
	id, ok := m.productToID[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	return id, nil
}

// ToProduct 返回下标对应的商品 ID；越界返回 ErrProductNotFound。
func (m *ProductIdMap) ToProduct(id int) (string, error) {
	if id < 0 || id >= len(m.idToProduct) {
		return "", ErrProductNotFound
	}
	return m.idToProduct[id], nil
}

// Len 返回词表大小。
func (m *ProductIdMap) Len() int {
	return len(m.idToProduct)
}

// Products 返回按下标排列的商品 ID 列表（只读用途）。
func (m *ProductIdMap) Products() []string {
	return m.idToProduct
}
