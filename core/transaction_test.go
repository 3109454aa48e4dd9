package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDatetimeLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2019-03-01 12:30:00", time.Date(2019, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"2019-03-01T12:30:00", time.Date(2019, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"2019-03-01", time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDatetime(tt.in)
		if err != nil {
			t.Errorf("ParseDatetime(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDatetime(%q) = %v, 期望 %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDatetime("01/03/2019"); err == nil {
		t.Error("不支持的格式应报错")
	}
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	raw := `{"datetime":"2019-02-01 10:00:00","purchase_sum":123.5,"store_id":"s1","products":[{"product_id":"a","price":10,"quantity":2}]}`

	var tr Transaction
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		t.Fatal(err)
	}
	if tr.Datetime.Hour() != 10 || tr.PurchaseSum != 123.5 || tr.StoreID != "s1" {
		t.Errorf("解析结果: %+v", tr)
	}
	if len(tr.Products) != 1 || tr.Products[0].Quantity != 2 {
		t.Errorf("商品行: %+v", tr.Products)
	}

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatal(err)
	}
	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Datetime.Equal(tr.Datetime) || back.PurchaseSum != tr.PurchaseSum {
		t.Errorf("序列化往返不一致: %+v vs %+v", back, tr)
	}
}

func TestTransactionUnmarshalBadDatetime(t *testing.T) {
	var tr Transaction
	if err := json.Unmarshal([]byte(`{"datetime":"soon"}`), &tr); err == nil {
		t.Error("非法时间应让解析失败")
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	dt, err := ParseDatetime(s)
	if err != nil {
		t.Fatal(err)
	}
	return dt
}

func TestSortHistoryStable(t *testing.T) {
	c := &ClientRecord{History: []Transaction{
		{Datetime: mustParse(t, "2019-02-15 00:00:00"), StoreID: "late"},
		{Datetime: mustParse(t, "2019-02-01 00:00:00"), StoreID: "early-1"},
		{Datetime: mustParse(t, "2019-02-01 00:00:00"), StoreID: "early-2"},
	}}
	c.SortHistory()

	got := []string{c.History[0].StoreID, c.History[1].StoreID, c.History[2].StoreID}
	// 同一时间的交易保持文件顺序
	want := []string{"early-1", "early-2", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("排序后门店顺序 = %v, 期望 %v", got, want)
		}
	}
}

func TestFavoriteStoreTieTakesFirstSeen(t *testing.T) {
	c := &ClientRecord{History: []Transaction{
		{StoreID: "s1"},
		{StoreID: "s2"},
		{StoreID: "s2"},
		{StoreID: "s1"},
	}}
	if got := c.FavoriteStore(); got != "s1" {
		t.Errorf("并列时应取先出现的门店: %s", got)
	}
	if got := c.LastStore(); got != "s1" {
		t.Errorf("LastStore = %s", got)
	}
}

func TestClientRecordEmptyAndProductIDs(t *testing.T) {
	var nilRecord *ClientRecord
	if !nilRecord.Empty() {
		t.Error("nil 记录应视为空")
	}
	if nilRecord.ProductIDs() != nil {
		t.Error("nil 记录的商品列表应为空")
	}
	if (&ClientRecord{ClientID: "c"}).FavoriteStore() != "" {
		t.Error("空历史的 FavoriteStore 应为空串")
	}

	c := &ClientRecord{History: []Transaction{
		{Products: []ProductLine{{ProductID: "a"}, {ProductID: "b"}}},
		{Products: []ProductLine{{ProductID: "a"}}},
	}}
	ids := c.ProductIDs()
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "a" {
		t.Errorf("商品应按事件顺序展开且保留重复: %v", ids)
	}
}
