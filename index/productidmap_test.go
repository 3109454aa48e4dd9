package index

import (
	"testing"

	"github.com/rushteam/nextbasket/core"
)

func TestProductIdMapRoundTrip(t *testing.T) {
	m := NewProductIdMap([]string{"c", "a", "b", "a"})

	if m.Len() != 3 {
		t.Fatalf("去重后词表大小应为 3，实际 %d", m.Len())
	}
	for _, productID := range []string{"a", "b", "c"} {
		id, err := m.ToID(productID)
		if err != nil {
			t.Fatalf("ToID(%q) 失败: %v", productID, err)
		}
		back, err := m.ToProduct(id)
		if err != nil {
			t.Fatalf("ToProduct(%d) 失败: %v", id, err)
		}
		if back != productID {
			t.Errorf("round trip 失败: %q -> %d -> %q", productID, id, back)
		}
	}
}

func TestProductIdMapDeterministic(t *testing.T) {
	a := NewProductIdMap([]string{"z", "x", "y"})
	b := NewProductIdMap([]string{"y", "z", "x"})

	for _, productID := range []string{"x", "y", "z"} {
		idA, _ := a.ToID(productID)
		idB, _ := b.ToID(productID)
		if idA != idB {
			t.Errorf("相同商品集合不同输入顺序应得到相同编号: %q %d != %d", productID, idA, idB)
		}
	}
}

func TestProductIdMapUnknown(t *testing.T) {
	m := NewProductIdMap([]string{"a"})

	if _, err := m.ToID("missing"); !core.IsNotFound(err) {
		t.Errorf("未知商品应返回 NOT_FOUND，实际 %v", err)
	}
	if _, err := m.ToProduct(99); !core.IsNotFound(err) {
		t.Errorf("越界编号应返回 NOT_FOUND，实际 %v", err)
	}
}

func TestProductIdMapFromRecords(t *testing.T) {
	records := []*core.ClientRecord{
		{ClientID: "c1", History: []core.Transaction{
			{Products: []core.ProductLine{{ProductID: "b"}, {ProductID: "a"}}},
		}},
		{ClientID: "c2", History: []core.Transaction{
			{Products: []core.ProductLine{{ProductID: "a"}}},
		}},
	}
	m := ProductIdMapFromRecords(records)
	if m.Len() != 2 {
		t.Fatalf("词表大小应为 2，实际 %d", m.Len())
	}
}
