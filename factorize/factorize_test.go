package factorize

import (
	"context"
	"testing"

	"github.com/rushteam/nextbasket/index"
	"github.com/rushteam/nextbasket/store"
)

// fakeFactorizer 返回固定因子，用于验证 Adapter 的朝向与键映射逻辑。
type fakeFactorizer struct {
	rows [][]float64
	cols [][]float64
}

func (f *fakeFactorizer) Fit(_ *index.Matrix, _, _ int) ([][]float64, [][]float64, error) {
	return f.rows, f.cols, nil
}

func TestAdapterOrientation(t *testing.T) {
	products := index.NewProductIdMap([]string{"a", "b"})
	rows := [][]float64{{1, 0}, {0, 1}, {9, 9}} // 行因子多一行填充
	cols := [][]float64{{2, 0}, {0, 2}}

	tests := []struct {
		name        string
		orientation Orientation
		wantA       []float64
	}{
		{"列因子是商品向量", ItemsOnColumns, []float64{2, 0}},
		{"行因子是商品向量", ItemsOnRows, []float64{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &Adapter{
				Model:       &fakeFactorizer{rows: rows, cols: cols},
				Products:    products,
				Orientation: tt.orientation,
			}
			vectors, err := adapter.Fit(&index.Matrix{NumRows: 2, NumCols: 2}, 2, 1)
			if err != nil {
				t.Fatalf("Fit 失败: %v", err)
			}
			got := vectors["a"]
			if len(got) != 2 || got[0] != tt.wantA[0] || got[1] != tt.wantA[1] {
				t.Errorf("商品 a 的向量 = %v, 期望 %v", got, tt.wantA)
			}
		})
	}
}

func TestAdapterSkipsFactorsBeyondVocabulary(t *testing.T) {
	products := index.NewProductIdMap([]string{"a"})
	adapter := &Adapter{
		Model:    &fakeFactorizer{cols: [][]float64{{1}, {2}, {3}}},
		Products: products,
	}
	vectors, err := adapter.Fit(&index.Matrix{NumRows: 1, NumCols: 1}, 1, 1)
	if err != nil {
		t.Fatalf("Fit 失败: %v", err)
	}
	if len(vectors) != 1 {
		t.Errorf("词表外的填充因子应被丢弃，向量表大小 = %d", len(vectors))
	}
}

func TestVerifyOrientation(t *testing.T) {
	vectors := ItemVectors{
		"a": {1, 0},
		"b": {0.9, 0.1},
		"c": {0, 1},
	}
	coPurchased := [][2]string{{"a", "b"}}
	unrelated := [][2]string{{"a", "c"}}

	if !VerifyOrientation(vectors, coPurchased, unrelated) {
		t.Error("共购对点积更大时校验应通过")
	}
	// 颠倒对子后应失败
	if VerifyOrientation(vectors, unrelated, coPurchased) {
		t.Error("共购对点积更小时校验应失败")
	}
	// 没有可比对子时不可信任
	if VerifyOrientation(vectors, nil, unrelated) {
		t.Error("没有共购对时应返回 false")
	}
	if VerifyOrientation(vectors, [][2]string{{"x", "y"}}, unrelated) {
		t.Error("全部对子缺向量时应返回 false")
	}
}

func TestItemVectorsStoreRoundTrip(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()
	vectors := ItemVectors{
		"a": {1, 0.5},
		"b": {0, -2},
	}

	if err := vectors.SaveToStore(ctx, kv, store.KeyItemVectors); err != nil {
		t.Fatalf("SaveToStore 失败: %v", err)
	}
	got, err := LoadItemVectorsStore(ctx, kv, store.KeyItemVectors)
	if err != nil {
		t.Fatalf("LoadItemVectorsStore 失败: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("向量表大小 = %d, 期望 2", len(got))
	}
	if v := got["a"]; len(v) != 2 || v[0] != 1 || v[1] != 0.5 {
		t.Errorf("商品 a 的向量 = %v, 期望 [1 0.5]", v)
	}
	if v := got["b"]; len(v) != 2 || v[0] != 0 || v[1] != -2 {
		t.Errorf("商品 b 的向量 = %v, 期望 [0 -2]", v)
	}

	// 空 Hash 读出空表而非错误
	empty, err := LoadItemVectorsStore(ctx, kv, "vectors:absent")
	if err != nil {
		t.Fatalf("空 key 加载失败: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("空 key 应返回空表，实际 %v", empty)
	}
}

func TestItemVectorsDot(t *testing.T) {
	vectors := ItemVectors{"a": {1, 2}}
	if got := vectors.Dot([]float64{3, 4}, "a"); got != 11 {
		t.Errorf("Dot = %v, 期望 11", got)
	}
	if got := vectors.Dot([]float64{3, 4}, "missing"); got != 0 {
		t.Errorf("缺向量商品的点积应为 0，实际 %v", got)
	}
	if got := vectors.Dot(nil, "a"); got != 0 {
		t.Errorf("空客户向量的点积应为 0，实际 %v", got)
	}
}
