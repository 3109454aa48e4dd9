package index

import (
	"encoding/json"

	"github.com/rushteam/nextbasket/core"
)

// ProductStoreStats 统计商品×门店的共现次数及双边边缘计数，
// 支持两个条件占比：
//   - ProductStoreShare(p, s)：商品 p 的销量中发生在门店 s 的比例
//   - StoreProductShare(p, s)：门店 s 的销量中商品 p 的比例
//
// 冷启动（商品/门店未见过）或分母为零时两者都返回 0，永不报错。
// 填充完成后可调用 Optimize() 一次，把内部键重映射为稠密下标省内存；
// 重映射严格保语义（冷查询仍然返回 0）。
type ProductStoreStats struct {
	pairCount    map[string]map[string]int
	storeCount   map[string]int
	productCount map[string]int

	// Optimize() 之后的稠密形式
	optimized  bool
	productIdx map[string]int
	storeIdx   map[string]int
	densePair  []map[int]int
	denseProd  []int
	denseStore []int
}

func NewProductStoreStats() *ProductStoreStats {
	return &ProductStoreStats{
		pairCount:    make(map[string]map[string]int),
		storeCount:   make(map[string]int),
		productCount: make(map[string]int),
	}
}

// BuildProductStoreStats 从一批客户交易历史构建统计。
func BuildProductStoreStats(records []*core.ClientRecord) *ProductStoreStats {
	stats := NewProductStoreStats()
	for _, record := range records {
		if record == nil {
			continue
		}
		for i := range record.History {
			tr := &record.History[i]
			for _, p := range tr.Products {
				stats.Add(p.ProductID, tr.StoreID)
			}
		}
	}
	return stats
}

// Add 记录一次 (商品, 门店) 销售。只能在 Optimize 之前调用。
func (s *ProductStoreStats) Add(productID, storeID string) {
	if s.optimized {
		return // 填充阶段已结束
	}
	row := s.pairCount[productID]
	if row == nil {
		row = make(map[string]int)
		s.pairCount[productID] = row
	}
	row[storeID]++
	s.storeCount[storeID]++
	s.productCount[productID]++
}

// Merge 累加另一个分片的统计。计数加法可交换可结合，分片合并顺序无关。
// 只能在 Optimize 之前调用。
func (s *ProductStoreStats) Merge(other *ProductStoreStats) {
	if other == nil || s.optimized {
		return
	}
	for p, row := range other.pairCount {
		dst := s.pairCount[p]
		if dst == nil {
			dst = make(map[string]int, len(row))
			s.pairCount[p] = dst
		}
		for st, n := range row {
			dst[st] += n
		}
	}
	for st, n := range other.storeCount {
		s.storeCount[st] += n
	}
	for p, n := range other.productCount {
		s.productCount[p] += n
	}
}

// Optimize 把字符串键重映射为稠密下标，释放嵌套 map。幂等。
func (s *ProductStoreStats) Optimize() {
	if s.optimized {
		return
	}
	s.productIdx = make(map[string]int, len(s.productCount))
	s.denseProd = make([]int, 0, len(s.productCount))
	for p, n := range s.productCount {
		s.productIdx[p] = len(s.denseProd)
		s.denseProd = append(s.denseProd, n)
	}
	s.storeIdx = make(map[string]int, len(s.storeCount))
	s.denseStore = make([]int, 0, len(s.storeCount))
	for st, n := range s.storeCount {
		s.storeIdx[st] = len(s.denseStore)
		s.denseStore = append(s.denseStore, n)
	}
	s.densePair = make([]map[int]int, len(s.denseProd))
	for p, row := range s.pairCount {
		pi := s.productIdx[p]
		dense := make(map[int]int, len(row))
		for st, n := range row {
			dense[s.storeIdx[st]] = n
		}
		s.densePair[pi] = dense
	}
	s.pairCount = nil
	s.storeCount = nil
	s.productCount = nil
	s.optimized = true
}

func (s *ProductStoreStats) pair(productID, storeID string) (pair, product, store int) {
	if s.optimized {
		pi, okP := s.productIdx[productID]
		si, okS := s.storeIdx[storeID]
		if okP {
			product = s.denseProd[pi]
		}
		if okS {
			store = s.denseStore[si]
		}
		if okP && okS {
			pair = s.densePair[pi][si]
		}
		return pair, product, store
	}
	return s.pairCount[productID][storeID], s.productCount[productID], s.storeCount[storeID]
}

// ProductStoreShare 返回商品 p 的销量中发生在门店 s 的比例；冷启动返回 0。
func (s *ProductStoreStats) ProductStoreShare(productID, storeID string) float64 {
	pair, product, _ := s.pair(productID, storeID)
	if product == 0 {
		return 0
	}
	return float64(pair) / float64(product)
}

// StoreProductShare 返回门店 s 的销量中商品 p 的比例；冷启动返回 0。
func (s *ProductStoreStats) StoreProductShare(productID, storeID string) float64 {
	pair, _, store := s.pair(productID, storeID)
	if store == 0 {
		return 0
	}
	return float64(pair) / float64(store)
}

// productStoreStatsBlob 是持久化格式：三张嵌套计数表，键为外部字符串 ID。
// 稠密下标只存在于进程内，两次运行之间不保证稳定，所以不落盘。
type productStoreStatsBlob struct {
	PairCount    map[string]map[string]int `json:"product_store_count"`
	StoreCount   map[string]int            `json:"store_count"`
	ProductCount map[string]int            `json:"product_count"`
}

func (s *ProductStoreStats) MarshalJSON() ([]byte, error) {
	if s.optimized {
		// 反向展开稠密形式，保持落盘格式与未优化时一致
		blob := productStoreStatsBlob{
			PairCount:    make(map[string]map[string]int, len(s.productIdx)),
			StoreCount:   make(map[string]int, len(s.storeIdx)),
			ProductCount: make(map[string]int, len(s.productIdx)),
		}
		storeName := make([]string, len(s.denseStore))
		for st, si := range s.storeIdx {
			storeName[si] = st
		}
		for p, pi := range s.productIdx {
			blob.ProductCount[p] = s.denseProd[pi]
			row := make(map[string]int, len(s.densePair[pi]))
			for si, n := range s.densePair[pi] {
				row[storeName[si]] = n
			}
			blob.PairCount[p] = row
		}
		for st, si := range s.storeIdx {
			blob.StoreCount[st] = s.denseStore[si]
		}
		return json.Marshal(blob)
	}
	return json.Marshal(productStoreStatsBlob{
		PairCount:    s.pairCount,
		StoreCount:   s.storeCount,
		ProductCount: s.productCount,
	})
}

func (s *ProductStoreStats) UnmarshalJSON(data []byte) error {
	var blob productStoreStatsBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return err
	}
	s.pairCount = blob.PairCount
	s.storeCount = blob.StoreCount
	s.productCount = blob.ProductCount
	if s.pairCount == nil {
		s.pairCount = make(map[string]map[string]int)
	}
	if s.storeCount == nil {
		s.storeCount = make(map[string]int)
	}
	if s.productCount == nil {
		s.productCount = make(map[string]int)
	}
	s.optimized = false
	s.productIdx = nil
	s.storeIdx = nil
	s.densePair = nil
	s.denseProd = nil
	s.denseStore = nil
	return nil
}
