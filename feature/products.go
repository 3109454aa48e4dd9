package feature

import (
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/index"
)

// ProductRow 是商品目录里的一行元数据，外加训练语料统计出的全局聚合。
// 全部字段都已数值化，可以直接落进特征行。
type ProductRow struct {
	ProductID      string
	Level1         float64
	Level2         float64
	Level3         float64
	Level4         float64
	SegmentID      float64
	BrandID        float64
	VendorID       float64
	Netto          float64
	IsOwnTrademark float64
	IsAlcohol      float64

	MaxDt         float64
	MinDt         float64
	AvgDt         float64
	MaxP          float64
	MinP          float64
	AvgP          float64
	MaxQ          float64
	MinQ          float64
	AvgQ          float64
	UniqueClients float64
}

// Catalog 是商品目录：商品 ID → 元数据。serving 启动时加载一次，只读。
type Catalog struct {
	rows map[string]*ProductRow
}

// NewCatalog 从已有行构建目录。
func NewCatalog(rows []*ProductRow) *Catalog {
	m := make(map[string]*ProductRow, len(rows))
	for _, r := range rows {
		m[r.ProductID] = r
	}
	return &Catalog{rows: m}
}

// LoadCatalog 从 CSV 文件加载商品目录。
// 第一行是表头，按列名取值；分类字段（层级、品牌、供应商）数值化：
// 能解析成数字的用数字，否则取稳定 hash。未识别的列忽略。
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}

// ReadCatalog 从 reader 解析 CSV 商品目录。
func ReadCatalog(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	if _, ok := col["product_id"]; !ok {
		return nil, fmt.Errorf("catalog missing product_id column")
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	rows := make(map[string]*ProductRow)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}
		id := field(record, "product_id")
		if id == "" {
			continue
		}
		rows[id] = &ProductRow{
			ProductID:      id,
			Level1:         EncodeCategorical(field(record, "level_1")),
			Level2:         EncodeCategorical(field(record, "level_2")),
			Level3:         EncodeCategorical(field(record, "level_3")),
			Level4:         EncodeCategorical(field(record, "level_4")),
			SegmentID:      EncodeCategorical(field(record, "segment_id")),
			BrandID:        EncodeCategorical(field(record, "brand_id")),
			VendorID:       EncodeCategorical(field(record, "vendor_id")),
			Netto:          parseFloat(field(record, "netto")),
			IsOwnTrademark: parseFloat(field(record, "is_own_trademark")),
			IsAlcohol:      parseFloat(field(record, "is_alcohol")),
			MaxDt:          parseFloat(field(record, "max_dt")),
			MinDt:          parseFloat(field(record, "min_dt")),
			AvgDt:          parseFloat(field(record, "avg_dt")),
			MaxP:           parseFloat(field(record, "max_p")),
			MinP:           parseFloat(field(record, "min_p")),
			AvgP:           parseFloat(field(record, "avg_p")),
			MaxQ:           parseFloat(field(record, "max_q")),
			MinQ:           parseFloat(field(record, "min_q")),
			AvgQ:           parseFloat(field(record, "avg_q")),
			UniqueClients:  parseFloat(field(record, "unique_clients")),
		}
	}
	return &Catalog{rows: rows}, nil
}

// Get 按商品 ID 取元数据。
func (c *Catalog) Get(productID string) (*ProductRow, bool) {
	r, ok := c.rows[productID]
	return r, ok
}

// Len 返回目录规模。
func (c *Catalog) Len() int { return len(c.rows) }

// Enrich 对特征行做元数据左连接。目录里没有的商品保持 0 默认值，绝不丢行。
func (c *Catalog) Enrich(rows []*Row) {
	if c == nil {
		return
	}
	for _, row := range rows {
		p, ok := c.rows[row.ProductID]
		if !ok {
			continue
		}
		row.Set(ColLevel1, p.Level1)
		row.Set(ColLevel2, p.Level2)
		row.Set(ColLevel3, p.Level3)
		row.Set(ColLevel4, p.Level4)
		row.Set(ColSegmentID, p.SegmentID)
		row.Set(ColBrandID, p.BrandID)
		row.Set(ColVendorID, p.VendorID)
		row.Set(ColNetto, p.Netto)
		row.Set(ColIsOwnTrademark, p.IsOwnTrademark)
		row.Set(ColIsAlcohol, p.IsAlcohol)
		row.Set(ColMaxDt, p.MaxDt)
		row.Set(ColMinDt, p.MinDt)
		row.Set(ColAvgDt, p.AvgDt)
		row.Set(ColMaxP, p.MaxP)
		row.Set(ColMinP, p.MinP)
		row.Set(ColAvgP, p.AvgP)
		row.Set(ColMaxQ, p.MaxQ)
		row.Set(ColMinQ, p.MinQ)
		row.Set(ColAvgQ, p.AvgQ)
		row.Set(ColUniqueClients, p.UniqueClients)
	}
}

// ProductAggregate 是单个商品在训练语料上的全局统计。
type ProductAggregate struct {
	MaxDt, MinDt, AvgDt float64
	MaxP, MinP, AvgP    float64
	MaxQ, MinQ, AvgQ    float64
	UniqueClients       float64
}

// BuildProductAggregates 扫一遍训练语料，统计每个商品的购买天数分布、
// 行金额分布、数量分布与去重客户数。reference 是 recency 基准时间。
func BuildProductAggregates(records []*core.ClientRecord, reference time.Time) map[string]ProductAggregate {
	type acc struct {
		maxDt, minDt, sumDt float64
		maxP, minP, sumP    float64
		maxQ, minQ, sumQ    float64
		n                   int
		clients             map[string]struct{}
	}
	stats := make(map[string]*acc)

	for _, record := range records {
		if record == nil {
			continue
		}
		for _, tr := range record.History {
			dt := float64(index.AgeDays(reference, tr.Datetime))
			for _, p := range tr.Products {
				a, ok := stats[p.ProductID]
				if !ok {
					a = &acc{
						maxDt: dt, minDt: dt,
						maxP: p.Price, minP: p.Price,
						maxQ: p.Quantity, minQ: p.Quantity,
						clients: make(map[string]struct{}),
					}
					stats[p.ProductID] = a
				}
				if dt > a.maxDt {
					a.maxDt = dt
				}
				if dt < a.minDt {
					a.minDt = dt
				}
				if p.Price > a.maxP {
					a.maxP = p.Price
				}
				if p.Price < a.minP {
					a.minP = p.Price
				}
				if p.Quantity > a.maxQ {
					a.maxQ = p.Quantity
				}
				if p.Quantity < a.minQ {
					a.minQ = p.Quantity
				}
				a.sumDt += dt
				a.sumP += p.Price
				a.sumQ += p.Quantity
				a.n++
				a.clients[record.ClientID] = struct{}{}
			}
		}
	}

	out := make(map[string]ProductAggregate, len(stats))
	for id, a := range stats {
		out[id] = ProductAggregate{
			MaxDt: a.maxDt, MinDt: a.minDt, AvgDt: a.sumDt / float64(a.n),
			MaxP: a.maxP, MinP: a.minP, AvgP: a.sumP / float64(a.n),
			MaxQ: a.maxQ, MinQ: a.minQ, AvgQ: a.sumQ / float64(a.n),
			UniqueClients: float64(len(a.clients)),
		}
	}
	return out
}

// ApplyAggregates 把全局统计写回目录。统计里有但目录里没有的商品补一行，
// 保证 serving 端左连接能覆盖全部见过的商品。
func (c *Catalog) ApplyAggregates(agg map[string]ProductAggregate) {
	for id, a := range agg {
		p, ok := c.rows[id]
		if !ok {
			p = &ProductRow{ProductID: id}
			c.rows[id] = p
		}
		p.MaxDt, p.MinDt, p.AvgDt = a.MaxDt, a.MinDt, a.AvgDt
		p.MaxP, p.MinP, p.AvgP = a.MaxP, a.MinP, a.AvgP
		p.MaxQ, p.MinQ, p.AvgQ = a.MaxQ, a.MinQ, a.AvgQ
		p.UniqueClients = a.UniqueClients
	}
}

// SaveCSV 把目录（含聚合列）写成 CSV，按商品 ID 升序。
func (c *Catalog) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"product_id",
		"level_1", "level_2", "level_3", "level_4",
		"segment_id", "brand_id", "vendor_id",
		"netto", "is_own_trademark", "is_alcohol",
		"max_dt", "min_dt", "avg_dt",
		"max_p", "min_p", "avg_p",
		"max_q", "min_q", "avg_q",
		"unique_clients",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	ids := make([]string, 0, len(c.rows))
	for id := range c.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := c.rows[id]
		record := []string{
			p.ProductID,
			formatFloat(p.Level1), formatFloat(p.Level2),
			formatFloat(p.Level3), formatFloat(p.Level4),
			formatFloat(p.SegmentID), formatFloat(p.BrandID), formatFloat(p.VendorID),
			formatFloat(p.Netto), formatFloat(p.IsOwnTrademark), formatFloat(p.IsAlcohol),
			formatFloat(p.MaxDt), formatFloat(p.MinDt), formatFloat(p.AvgDt),
			formatFloat(p.MaxP), formatFloat(p.MinP), formatFloat(p.AvgP),
			formatFloat(p.MaxQ), formatFloat(p.MinQ), formatFloat(p.AvgQ),
			formatFloat(p.UniqueClients),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// EncodeCategorical 把分类取值数值化：数字字符串按数字，其他取 FNV-1a hash。
// 空串固定编码为 0（缺失的中性值）。同一取值在任何进程里编码一致。
func EncodeCategorical(s string) float64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32())
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
