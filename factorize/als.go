package factorize

import (
	"fmt"
	"math/rand"

	"github.com/rushteam/nextbasket/index"
)

// ALS 是隐式反馈交替最小二乘分解器（Hu, Koren, Volinsky 2008）。
// 交互权重 w 映射为置信度 c = 1 + Alpha*w，观测项偏好为 1。
// 固定种子初始化，同一矩阵两次训练输出一致。
type ALS struct {
	Alpha float64 // 置信度放大系数，0 取 40
	Reg   float64 // L2 正则，0 取 0.01
	Seed  int64
}

var _ Factorizer = (*ALS)(nil)

// Fit 实现 Factorizer。行因子与矩阵行对齐（客户），列因子与列对齐（商品）。
func (a *ALS) Fit(mat *index.Matrix, rank, iterations int) ([][]float64, [][]float64, error) {
	if mat == nil || mat.NumRows == 0 || mat.NumCols == 0 {
		return nil, nil, fmt.Errorf("als: empty matrix")
	}
	if rank <= 0 || iterations <= 0 {
		return nil, nil, fmt.Errorf("als: rank=%d iterations=%d", rank, iterations)
	}

	alpha := a.Alpha
	if alpha == 0 {
		alpha = 40
	}
	reg := a.Reg
	if reg == 0 {
		reg = 0.01
	}

	rng := rand.New(rand.NewSource(a.Seed))
	rows := initFactors(rng, mat.NumRows, rank)
	cols := initFactors(rng, mat.NumCols, rank)

	transposed := transpose(mat)

	for iter := 0; iter < iterations; iter++ {
		solveSide(mat.Rows, rows, cols, rank, alpha, reg)
		solveSide(transposed, cols, rows, rank, alpha, reg)
	}
	return rows, cols, nil
}

func initFactors(rng *rand.Rand, n, rank int) [][]float64 {
	factors := make([][]float64, n)
	for i := range factors {
		vec := make([]float64, rank)
		for j := range vec {
			vec[j] = rng.Float64() * 0.01
		}
		factors[i] = vec
	}
	return factors
}

// transpose 把行表示转成列表示，Cell.Col 复用为行下标。
func transpose(mat *index.Matrix) [][]index.Cell {
	cols := make([][]index.Cell, mat.NumCols)
	for rowIdx, row := range mat.Rows {
		for _, cell := range row {
			cols[cell.Col] = append(cols[cell.Col], index.Cell{Col: rowIdx, Weight: cell.Weight})
		}
	}
	return cols
}

// solveSide 固定 fixed 因子，逐行求解 solve 因子的正规方程。
// 没有交互的行保持当前因子不动。
func solveSide(interactions [][]index.Cell, solve, fixed [][]float64, rank int, alpha, reg float64) {
	base := gram(fixed, rank, reg)

	A := make([][]float64, rank)
	for i := range A {
		A[i] = make([]float64, rank)
	}
	b := make([]float64, rank)

	for rowIdx := range solve {
		if rowIdx >= len(interactions) || len(interactions[rowIdx]) == 0 {
			continue
		}
		for i := range A {
			copy(A[i], base[i])
			b[i] = 0
		}
		for _, cell := range interactions[rowIdx] {
			y := fixed[cell.Col]
			confidence := 1 + alpha*cell.Weight
			for i := 0; i < rank; i++ {
				b[i] += confidence * y[i]
				for j := 0; j < rank; j++ {
					A[i][j] += (confidence - 1) * y[i] * y[j]
				}
			}
		}
		if x := solveLinear(A, b); x != nil {
			copy(solve[rowIdx], x)
		}
	}
}

// gram 计算 Y^T Y + reg*I。
func gram(factors [][]float64, rank int, reg float64) [][]float64 {
	g := make([][]float64, rank)
	for i := range g {
		g[i] = make([]float64, rank)
	}
	for _, y := range factors {
		for i := 0; i < rank; i++ {
			for j := 0; j < rank; j++ {
				g[i][j] += y[i] * y[j]
			}
		}
	}
	for i := 0; i < rank; i++ {
		g[i][i] += reg
	}
	return g
}

// solveLinear 用部分主元高斯消元解 Ax=b。A 和 b 会被原地修改。
// 矩阵奇异时返回 nil。
func solveLinear(A [][]float64, b []float64) []float64 {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(A[r][col]) > abs(A[pivot][col]) {
				pivot = r
			}
		}
		if abs(A[pivot][col]) < 1e-12 {
			return nil
		}
		A[col], A[pivot] = A[pivot], A[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			factor := A[r][col] / A[col][col]
			if factor == 0 {
				continue
			}
			for c := col; c < n; c++ {
				A[r][c] -= factor * A[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= A[i][j] * x[j]
		}
		x[i] = sum / A[i][i]
	}
	return x
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
