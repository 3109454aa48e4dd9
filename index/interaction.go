package index

import (
	"math"
	"time"

	"github.com/rushteam/nextbasket/core"
)

// WeightFunc 是交互权重策略：给定一笔交易，返回该交易内每个商品事件的权重。
// 计数（1.0）和按时效衰减是两种内置策略；权重必须非负。
type WeightFunc func(tr *core.Transaction) float64

// CountWeight 返回无权计数策略：每次购买 +1。
func CountWeight() WeightFunc {
	return func(*core.Transaction) float64 { return 1 }
}

// RecencyDecayWeight 返回时效衰减策略：weight = (age_days + 1)^(-1/5)，
// age 以显式传入的参考时间（评估切分边界）计量，严格单调递减。
// 未来时间（age < 0）按 0 天处理。
func RecencyDecayWeight(reference time.Time) WeightFunc {
	return func(tr *core.Transaction) float64 {
		age := AgeDays(reference, tr.Datetime)
		if age < 0 {
			age = 0
		}
		return math.Pow(float64(age)+1, -0.2)
	}
}

// AgeDays 返回 t 相对参考时间的整天数（向下取整，参考时间之后为负）。
func AgeDays(reference, t time.Time) int {
	return int(math.Floor(reference.Sub(t).Hours() / 24))
}

// Cell 是稀疏行中的一个非零元素。
type Cell struct {
	Col    int
	Weight float64
}

// Matrix 是客户×商品的稀疏交互矩阵（按行存储，行内按列号升序）。
// 只作为黑盒分解器的输入值类型，不提供线性代数运算。
type Matrix struct {
	NumRows int
	NumCols int
	Rows    [][]Cell
}

// NNZ 返回非零元素个数。
func (m *Matrix) NNZ() int {
	n := 0
	for _, row := range m.Rows {
		n += len(row)
	}
	return n
}

// InteractionBuilder 把一批客户交易历史转换为稀疏交互矩阵。
// 词表之外的商品（冷启动）直接跳过；权重策略由调用方提供，不在这里硬编码。
type InteractionBuilder struct {
	Products *ProductIdMap
	Weight   WeightFunc
}

// NewInteractionBuilder 创建构建器；weight 为 nil 时使用无权计数。
func NewInteractionBuilder(products *ProductIdMap, weight WeightFunc) *InteractionBuilder {
	if weight == nil {
		weight = CountWeight()
	}
	return &InteractionBuilder{Products: products, Weight: weight}
}

// BuildRow 为单个客户构建一行稀疏交互向量（serving 时按训练同款权重复权）。
// 没有任何词表内购买时返回空行。
func (b *InteractionBuilder) BuildRow(record *core.ClientRecord) []Cell {
	if record.Empty() {
		return nil
	}
	weights := make(map[int]float64)
	for i := range record.History {
		tr := &record.History[i]
		w := b.Weight(tr)
		for _, p := range tr.Products {
			id, err := b.Products.ToID(p.ProductID)
			if err != nil {
				continue // 冷启动商品：中性处理
			}
			weights[id] += w
		}
	}
	return sortedCells(weights)
}

// Build 构建客户×商品矩阵。空历史或全冷启动的客户不产生行（与训练语料对齐）。
func (b *InteractionBuilder) Build(records []*core.ClientRecord) *Matrix {
	mat := &Matrix{NumCols: b.Products.Len()}
	for _, record := range records {
		row := b.BuildRow(record)
		if len(row) == 0 {
			continue
		}
		mat.Rows = append(mat.Rows, row)
	}
	mat.NumRows = len(mat.Rows)
	return mat
}

func sortedCells(weights map[int]float64) []Cell {
	if len(weights) == 0 {
		return nil
	}
	cells := make([]Cell, 0, len(weights))
	for col, w := range weights {
		cells = append(cells, Cell{Col: col, Weight: w})
	}
	// 行内按列号升序，便于下游顺序扫描
	for i := 1; i < len(cells); i++ {
		for j := i; j > 0 && cells[j].Col < cells[j-1].Col; j-- {
			cells[j], cells[j-1] = cells[j-1], cells[j]
		}
	}
	return cells
}
