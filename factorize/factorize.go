// Package factorize 封装外部隐语义分解例程（ALS、item-item 近邻等）。
// 分解器本身是黑盒：本包只负责矩阵朝向、把因子矩阵转成以外部商品 ID
// 为键的向量表，以及朝向正确性的验证。
package factorize

import (
	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/index"
)

// Factorizer 是黑盒分解契约：输入交互矩阵，输出 (行因子, 列因子)。
// 内部优化过程（迭代、正则、并行）不在本包关心范围内。
type Factorizer interface {
	// Fit 分解矩阵；rowFactors 与矩阵行对齐，colFactors 与矩阵列对齐，
	// 每个因子向量长度等于 rank。
	Fit(mat *index.Matrix, rank, iterations int) (rowFactors, colFactors [][]float64, err error)
}

// Orientation 指定因子矩阵的哪个轴对应商品向量。
//
// 历史上不同分解库的输出朝向不一致（有的库把"用户因子"和"物品因子"颠倒），
// 这里把朝向做成显式契约：先用 VerifyOrientation 对已知共购商品对验证，
// 再信任生产输出。
type Orientation int

const (
	// ItemsOnColumns：客户×商品矩阵的常规朝向，列因子是商品向量。
	ItemsOnColumns Orientation = iota
	// ItemsOnRows：分解库输出转置（行因子才是商品向量）。
	ItemsOnRows
)

// ErrFactorization 表示外部分解例程失败。
var ErrFactorization = core.NewDomainError(core.ModuleModel, core.ErrorCodeUnavailable, "factorize: external solver failed")

// Adapter 把黑盒分解器的输出转成商品向量表。
// 输出一律以外部字符串商品 ID 为键：稠密下标在两次训练之间不稳定，
// 任何下游缓存都必须能在重训后继续使用。
type Adapter struct {
	Model       Factorizer
	Products    *index.ProductIdMap
	Orientation Orientation
}

// Fit 运行分解并返回商品向量表。
// 要求矩阵列轴与 Products 词表对齐（ItemsOnRows 时为行轴）。
func (a *Adapter) Fit(mat *index.Matrix, rank, iterations int) (ItemVectors, error) {
	rows, cols, err := a.Model.Fit(mat, rank, iterations)
	if err != nil {
		return nil, ErrFactorization
	}
	factors := cols
	if a.Orientation == ItemsOnRows {
		factors = rows
	}

	vectors := make(ItemVectors, len(factors))
	for i, factor := range factors {
		productID, err := a.Products.ToProduct(i)
		if err != nil {
			continue // 因子数多于词表：外部库补了填充行，丢弃
		}
		vec := make([]float64, len(factor))
		copy(vec, factor)
		vectors[productID] = vec
	}
	return vectors, nil
}

// VerifyOrientation 用已知共购商品对检验向量朝向是否正确：
// 共购对的平均点积必须严格大于无关对的平均点积。
// 任一商品缺向量的对子被跳过；没有可比对子时返回 false（不可信任）。
func VerifyOrientation(vectors ItemVectors, coPurchased, unrelated [][2]string) bool {
	meanDot := func(pairs [][2]string) (float64, int) {
		sum, n := 0.0, 0
		for _, pair := range pairs {
			a, okA := vectors[pair[0]]
			b, okB := vectors[pair[1]]
			if !okA || !okB {
				continue
			}
			sum += dot(a, b)
			n++
		}
		return sum, n
	}
	coSum, coN := meanDot(coPurchased)
	unSum, unN := meanDot(unrelated)
	if coN == 0 || unN == 0 {
		return false
	}
	return coSum/float64(coN) > unSum/float64(unN)
}

func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
