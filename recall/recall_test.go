package recall

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/factorize"
	"github.com/rushteam/nextbasket/index"
)

func record(clientID string, baskets ...[]string) *core.ClientRecord {
	r := &core.ClientRecord{ClientID: clientID}
	for _, basket := range baskets {
		products := make([]core.ProductLine, len(basket))
		for i, id := range basket {
			products[i] = core.ProductLine{ProductID: id, Quantity: 1}
		}
		r.History = append(r.History, core.Transaction{Products: products})
	}
	return r
}

func TestTopNOrdering(t *testing.T) {
	scored := []ScoredProduct{
		{ProductID: "b", Score: 1},
		{ProductID: "a", Score: 1},
		{ProductID: "c", Score: 5},
	}
	got := topN(scored, 2)
	if len(got) != 2 {
		t.Fatalf("topN(2) 返回 %d 个", len(got))
	}
	if got[0].ProductID != "c" {
		t.Errorf("最高分应排第一，实际 %s", got[0].ProductID)
	}
	// 同分按商品 ID 升序，结果可复现
	if got[1].ProductID != "a" {
		t.Errorf("同分 tie-break 应取 ID 较小者，实际 %s", got[1].ProductID)
	}
}

func TestPopularHistory(t *testing.T) {
	r := &PopularHistory{TopK: 10}
	rec := record("c1", []string{"a", "b"}, []string{"a"})

	got := r.Recommend(rec, false, 10)
	if len(got) != 2 || got[0].ProductID != "a" {
		t.Fatalf("复购次数最多的商品应排第一: %v", got)
	}
	// 自购历史召回在 excludeSeen 下没有意义
	if got := r.Recommend(rec, true, 10); got != nil {
		t.Errorf("excludeSeen 时应返回空，实际 %v", got)
	}
	if got := r.Recommend(record("empty"), false, 10); got != nil {
		t.Errorf("空历史应返回空，实际 %v", got)
	}
}

func TestCoocRecall(t *testing.T) {
	table := index.BuildCoocTable([]*core.ClientRecord{
		record("x", []string{"a", "b"}),
		record("y", []string{"a", "c"}),
		record("z", []string{"d", "e"}),
	})
	r := &Cooc{Table: table, TopK: 10}

	got := r.Recommend(record("client", []string{"a"}), false, 10)
	found := map[string]bool{}
	for _, s := range got {
		found[s.ProductID] = true
	}
	if !found["b"] || !found["c"] {
		t.Errorf("买过 a 的客户应召回 b 和 c: %v", got)
	}
	if found["d"] || found["e"] {
		t.Errorf("无关商品不应出现: %v", got)
	}

	// 词表无交集 → 空列表而非错误
	if got := r.Recommend(record("client", []string{"unknown"}), false, 10); len(got) != 0 {
		t.Errorf("全冷启动历史应返回空，实际 %v", got)
	}
}

func TestCoocRecallExcludeSeen(t *testing.T) {
	table := index.BuildCoocTable([]*core.ClientRecord{
		record("x", []string{"a", "b"}),
	})
	r := &Cooc{Table: table, TopK: 10}

	got := r.Recommend(record("client", []string{"a", "b"}), true, 10)
	if len(got) != 0 {
		t.Errorf("excludeSeen 应剔除已购商品: %v", got)
	}
}

func TestImplicitRecall(t *testing.T) {
	products := index.NewProductIdMap([]string{"a", "b", "c"})
	vectors := factorize.ItemVectors{
		"a": {1, 0},
		"b": {0.9, 0.1},
		"c": {0, 1},
	}
	r := &Implicit{Vectors: vectors, Products: products, TopK: 10}

	got := r.Recommend(record("client", []string{"a"}), false, 10)
	if len(got) == 0 {
		t.Fatal("应返回候选")
	}
	if got[0].ProductID != "a" {
		t.Errorf("与客户向量最接近的商品应排第一，实际 %s", got[0].ProductID)
	}
	rank := map[string]int{}
	for i, s := range got {
		rank[s.ProductID] = i
	}
	if rank["b"] > rank["c"] {
		t.Errorf("b 应排在 c 之前: %v", got)
	}

	// 历史与词表无交集 → 空列表
	if got := r.Recommend(record("client", []string{"unknown"}), false, 10); len(got) != 0 {
		t.Errorf("无交集应返回空，实际 %v", got)
	}
}

// emptySource 永远召回不到候选。
type emptySource struct{}

func (emptySource) Recommend(*core.ClientRecord, bool, int) []ScoredProduct { return nil }

func TestCascadeFirstNonEmptyWins(t *testing.T) {
	table := index.BuildCoocTable([]*core.ClientRecord{
		record("x", []string{"a", "b"}),
	})
	cascade := Cascade{
		emptySource{},
		&Cooc{Table: table, TopK: 10},
		&PopularHistory{TopK: 10},
	}

	got := cascade.Recommend(record("client", []string{"a"}), false, 10)
	if len(got) != 1 || got[0].ProductID != "b" {
		t.Fatalf("应采用第一个非空源的结果: %v", got)
	}

	// 共现表覆盖不到时落到下一级
	got = cascade.Recommend(record("client", []string{"unknown"}), false, 10)
	if len(got) != 1 || got[0].ProductID != "unknown" {
		t.Errorf("上级为空应降级到自购历史: %v", got)
	}

	if got := (Cascade{emptySource{}, nil}).Recommend(record("client", []string{"a"}), false, 10); got != nil {
		t.Errorf("全部源为空应返回空: %v", got)
	}
}

func TestHotFallbackList(t *testing.T) {
	r := &Hot{IDs: []string{"p1", "p2", "p3"}, TopK: 2}
	got := r.List(context.Background())
	if len(got) != 2 || got[0] != "p1" {
		t.Errorf("内存兜底列表应按序截断: %v", got)
	}
}

// failSource 总是失败的召回源，用于验证 fanout 的隔离性。
type failSource struct{}

func (failSource) Name() string { return "fail" }
func (failSource) Recall(context.Context, *core.RecommendContext) ([]*core.Item, error) {
	return nil, errors.New("boom")
}

func TestFanoutMergeAndIsolation(t *testing.T) {
	fanout := &Fanout{
		Sources: []Source{
			&Hot{IDs: []string{"a", "b"}},
			failSource{},
			&Hot{IDs: []string{"b", "c"}},
		},
		Dedup: true,
	}

	items, err := fanout.Process(context.Background(), &core.RecommendContext{ClientID: "c1"}, nil)
	if err != nil {
		t.Fatalf("单路失败不应中断 fanout: %v", err)
	}
	ids := map[string]int{}
	for _, it := range items {
		ids[it.ID]++
	}
	for _, id := range []string{"a", "b", "c"} {
		if ids[id] != 1 {
			t.Errorf("商品 %s 应恰好出现一次，实际 %d 次", id, ids[id])
		}
	}
}
