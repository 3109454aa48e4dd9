package factorize

import (
	"testing"

	"github.com/rushteam/nextbasket/index"
)

// blockMatrix 构造两组互不相交的共购客户：
// c1/c2/c3 只买 a 和 b，c4/c5/c6 只买 c 和 d。
func blockMatrix(t *testing.T) (*index.Matrix, *index.ProductIdMap) {
	t.Helper()
	products := index.NewProductIdMap([]string{"a", "b", "c", "d"})
	records := []*testRecord{
		{"c1", []string{"a", "b"}},
		{"c2", []string{"a", "b"}},
		{"c3", []string{"a", "b"}},
		{"c4", []string{"c", "d"}},
		{"c5", []string{"c", "d"}},
		{"c6", []string{"c", "d"}},
	}
	mat := &index.Matrix{NumRows: len(records), NumCols: products.Len()}
	for _, r := range records {
		var row []index.Cell
		for _, p := range r.products {
			id, err := products.ToID(p)
			if err != nil {
				t.Fatal(err)
			}
			row = append(row, index.Cell{Col: id, Weight: 1})
		}
		mat.Rows = append(mat.Rows, row)
	}
	return mat, products
}

type testRecord struct {
	client   string
	products []string
}

func TestALSRecoversCoPurchaseStructure(t *testing.T) {
	mat, products := blockMatrix(t)

	adapter := &Adapter{
		Model:       &ALS{Seed: 1},
		Products:    products,
		Orientation: ItemsOnColumns,
	}
	vectors, err := adapter.Fit(mat, 2, 15)
	if err != nil {
		t.Fatalf("Fit 失败: %v", err)
	}
	if len(vectors) != 4 || vectors.Rank() != 2 {
		t.Fatalf("应得到 4 个 rank=2 的向量，实际 %d 个 rank=%d", len(vectors), vectors.Rank())
	}

	coPurchased := [][2]string{{"a", "b"}, {"c", "d"}}
	unrelated := [][2]string{{"a", "c"}, {"b", "d"}}
	if !VerifyOrientation(vectors, coPurchased, unrelated) {
		t.Error("共购商品对的平均点积应大于无关对")
	}
}

func TestALSDeterministic(t *testing.T) {
	mat, products := blockMatrix(t)
	adapter := &Adapter{Model: &ALS{Seed: 7}, Products: products}

	v1, err := adapter.Fit(mat, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := adapter.Fit(mat, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	for id, vec := range v1 {
		for i := range vec {
			if vec[i] != v2[id][i] {
				t.Fatalf("固定种子两次训练的向量应逐位一致，商品 %s 第 %d 维不同", id, i)
			}
		}
	}
}

func TestALSRejectsEmptyMatrix(t *testing.T) {
	als := &ALS{}
	if _, _, err := als.Fit(&index.Matrix{}, 2, 5); err == nil {
		t.Error("空矩阵应返回错误")
	}
	if _, _, err := als.Fit(&index.Matrix{NumRows: 1, NumCols: 1, Rows: [][]index.Cell{{{Col: 0, Weight: 1}}}}, 0, 5); err == nil {
		t.Error("rank=0 应返回错误")
	}
}

func TestSolveLinear(t *testing.T) {
	// 2x + y = 5, x + 3y = 10 → x = 1, y = 3
	A := [][]float64{{2, 1}, {1, 3}}
	b := []float64{5, 10}
	x := solveLinear(A, b)
	if x == nil {
		t.Fatal("可解方程组返回了 nil")
	}
	if abs(x[0]-1) > 1e-9 || abs(x[1]-3) > 1e-9 {
		t.Errorf("解 = %v, 期望 [1 3]", x)
	}

	// 奇异矩阵
	if x := solveLinear([][]float64{{1, 1}, {1, 1}}, []float64{1, 2}); x != nil {
		t.Error("奇异矩阵应返回 nil")
	}
}
