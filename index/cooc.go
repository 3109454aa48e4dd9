package index

import (
	"encoding/json"

	"github.com/rushteam/nextbasket/core"
)

// CoocTable 是商品×商品的对称共现表：两个商品出现在同一笔交易中的次数。
// 每笔交易独立枚举无序商品对（篮子都很小，O(n²) 可接受）；
// 零商品或单商品的交易不产生任何贡献。
type CoocTable struct {
	counts map[string]map[string]int
}

func NewCoocTable() *CoocTable {
	return &CoocTable{counts: make(map[string]map[string]int)}
}

// BuildCoocTable 从一批客户交易历史构建共现表。
func BuildCoocTable(records []*core.ClientRecord) *CoocTable {
	t := NewCoocTable()
	for _, record := range records {
		if record == nil {
			continue
		}
		for i := range record.History {
			t.AddTransaction(&record.History[i])
		}
	}
	return t
}

// AddTransaction 枚举一笔交易内的全部无序商品对并对称累加。
// 同一商品在交易内出现多行时，按列表原样参与组合（与对角线自配对一致处理）。
func (t *CoocTable) AddTransaction(tr *core.Transaction) {
	ids := make([]string, 0, len(tr.Products))
	for _, p := range tr.Products {
		ids = append(ids, p.ProductID)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			t.add(ids[i], ids[j])
			t.add(ids[j], ids[i])
		}
	}
}

func (t *CoocTable) add(a, b string) {
	row := t.counts[a]
	if row == nil {
		row = make(map[string]int)
		t.counts[a] = row
	}
	row[b]++
}

// Count 返回两个商品的共现次数；任一商品未见过返回 0。
func (t *CoocTable) Count(a, b string) int {
	return t.counts[a][b]
}

// Neighbors 返回与 product 共现过的商品及次数；冷启动商品返回 nil。
// 返回的 map 为内部状态，调用方只读。
func (t *CoocTable) Neighbors(product string) map[string]int {
	return t.counts[product]
}

// Len 返回表中有共现记录的商品数。
func (t *CoocTable) Len() int {
	return len(t.counts)
}

// Merge 把另一个分片的共现表累加进来。
// 计数加法满足结合律和交换律，分片合并顺序不影响最终结果。
func (t *CoocTable) Merge(other *CoocTable) {
	if other == nil {
		return
	}
	for a, row := range other.counts {
		dst := t.counts[a]
		if dst == nil {
			dst = make(map[string]int, len(row))
			t.counts[a] = dst
		}
		for b, n := range row {
			dst[b] += n
		}
	}
}

// MarshalJSON 以嵌套计数表的形式序列化（键为外部商品 ID）。
func (t *CoocTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.counts)
}

func (t *CoocTable) UnmarshalJSON(data []byte) error {
	counts := make(map[string]map[string]int)
	if err := json.Unmarshal(data, &counts); err != nil {
		return err
	}
	t.counts = counts
	return nil
}
