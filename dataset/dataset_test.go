package dataset

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rushteam/nextbasket/core"
)

func recordLine(clientID, productID string) string {
	seed := `{"client_id":"` + clientID + `","transaction_history":[{"datetime":"2019-02-01 10:00:00","purchase_sum":10,"store_id":"s1","products":[{"product_id":"` + productID + `","price":10,"quantity":1}]}]}`
	holdout := `{"client_id":"` + clientID + `","transaction_history":[{"datetime":"2019-03-02 10:00:00","purchase_sum":10,"store_id":"s1","products":[{"product_id":"` + productID + `","price":10,"quantity":1}]}]}`
	return seed + "\t" + holdout
}

func writeCorpus(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "purchases.jsons")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadClientPurchases(t *testing.T) {
	path := writeCorpus(t, recordLine("c1", "a"), recordLine("c2", "b"), recordLine("c3", "c"))

	train, test, err := ReadClientPurchases(path, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(train) != 3 || len(test) != 3 {
		t.Fatalf("读全量 = (%d, %d), 期望 (3, 3)", len(train), len(test))
	}
	if train[0].ClientID != "c1" || test[0].ClientID != "c1" {
		t.Error("种子和留出记录应下标对齐")
	}
}

func TestReadClientPurchasesOffsetLimit(t *testing.T) {
	path := writeCorpus(t, recordLine("c1", "a"), recordLine("c2", "b"), recordLine("c3", "c"))

	train, _, err := ReadClientPurchases(path, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(train) != 1 || train[0].ClientID != "c2" {
		t.Errorf("偏移 1 限量 1 应只读到 c2: %+v", train)
	}
}

func TestReadClientPurchasesMalformedLineFatal(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"缺少制表符", `{"client_id":"c1"}`},
		{"种子不是 JSON", "not-json\t{}"},
		{"时间格式非法", `{"client_id":"c1","transaction_history":[{"datetime":"soon"}]}` + "\t" + `{"client_id":"c1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCorpus(t, recordLine("c0", "a"), tt.line)
			if _, _, err := ReadClientPurchases(path, 0, 0); err == nil {
				t.Error("坏行应让整次读取失败")
			}
		})
	}
}

func TestTargetsFirstHoldoutTransactionOnly(t *testing.T) {
	holdouts := []*core.ClientRecord{
		{ClientID: "c1", History: []core.Transaction{
			{Products: []core.ProductLine{{ProductID: "a"}, {ProductID: "b"}}},
			{Products: []core.ProductLine{{ProductID: "later"}}},
		}},
		{ClientID: "empty"},
	}
	got := Targets(holdouts)
	want := []Target{{"c1", "a"}, {"c1", "b"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("正样本只取留出期第一笔交易: %v", got)
	}
}

func TestGTCountsCapped(t *testing.T) {
	var targets []Target
	for i := 0; i < MaxGTCount+10; i++ {
		targets = append(targets, Target{ClientID: "c1", ProductID: string(rune('a' + i))})
	}
	counts := GTCounts(targets)
	if counts["c1"] != MaxGTCount {
		t.Errorf("单客户 ground-truth 数应封顶 %d, 实际 %d", MaxGTCount, counts["c1"])
	}
}

func TestBuildCoocParallelPartitionInvariant(t *testing.T) {
	records := buildRecords(t, 7)

	one, err := BuildCoocParallel(context.Background(), records, 1)
	if err != nil {
		t.Fatal(err)
	}
	three, err := BuildCoocParallel(context.Background(), records, 3)
	if err != nil {
		t.Fatal(err)
	}

	a1 := one.Neighbors("a")
	a3 := three.Neighbors("a")
	if !reflect.DeepEqual(a1, a3) {
		t.Errorf("worker 数不应影响共现结果: %v vs %v", a1, a3)
	}
}

func TestBuildStoreStatsParallelPartitionInvariant(t *testing.T) {
	records := buildRecords(t, 7)

	one, err := BuildStoreStatsParallel(context.Background(), records, 1)
	if err != nil {
		t.Fatal(err)
	}
	four, err := BuildStoreStatsParallel(context.Background(), records, 4)
	if err != nil {
		t.Fatal(err)
	}
	one.Optimize()
	four.Optimize()

	if g1, g4 := one.ProductStoreShare("a", "s1"), four.ProductStoreShare("a", "s1"); g1 != g4 {
		t.Errorf("worker 数不应影响门店份额: %v vs %v", g1, g4)
	}
	if one.ProductStoreShare("a", "s1") == 0 {
		t.Error("统计不应为空")
	}
}

func buildRecords(t *testing.T, n int) []*core.ClientRecord {
	t.Helper()
	dt, err := core.ParseDatetime("2019-02-01 00:00:00")
	if err != nil {
		t.Fatal(err)
	}
	records := make([]*core.ClientRecord, n)
	for i := range records {
		store := "s1"
		if i%2 == 1 {
			store = "s2"
		}
		records[i] = &core.ClientRecord{
			ClientID: string(rune('A' + i)),
			History: []core.Transaction{
				{Datetime: dt, StoreID: store, Products: []core.ProductLine{
					{ProductID: "a", Quantity: 1},
					{ProductID: "b", Quantity: 1},
				}},
			},
		}
	}
	return records
}
