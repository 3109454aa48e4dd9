package feature

import (
	"sort"
	"time"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/factorize"
	"github.com/rushteam/nextbasket/index"
	"github.com/rushteam/nextbasket/recall"
)

// DefaultNumCandidates 是每个客户参与特征组装的召回候选数量。
const DefaultNumCandidates = 100

// Assembler 为每个 (客户, 商品) 组装一行特征。
// 候选集合 = 客户买过的全部商品 ∪ 召回 TopK 候选。
// 每个数值语义都被下游排序模型依赖，离线训练与在线打分必须逐位一致，
// 所以二者共用这一个实现。
//
// ReferenceTime 是 recency 计算的基准时间，显式传入而非进程级常量：
// 训练时取测试期起点，serving 时由配置给定。
type Assembler struct {
	Vectors       factorize.ItemVectors
	Candidates    recall.CandidateRecommender
	StoreStats    *index.ProductStoreStats
	ReferenceTime time.Time
	NumCandidates int // 0 表示 DefaultNumCandidates
}

// productEvent 是展开后的单个购买事件。
type productEvent struct {
	productID string
	quantity  float64
	tid       int // 1-based 交易序号
	trAge     int // 距基准时间的天数
}

// Assemble 对一批客户组装特征，按输入顺序串联各客户的行。
func (a *Assembler) Assemble(records []*core.ClientRecord) []*Row {
	var rows []*Row
	for _, record := range records {
		rows = append(rows, a.AssembleClient(record)...)
	}
	return rows
}

// AssembleClient 对单个客户组装特征行。空历史返回空切片。
// 输出顺序确定：先是购买过的商品（按商品 ID 升序），
// 再是候选补充行（按商品 ID 升序）。
func (a *Assembler) AssembleClient(record *core.ClientRecord) []*Row {
	if record.Empty() {
		return nil
	}

	numCandidates := a.NumCandidates
	if numCandidates <= 0 {
		numCandidates = DefaultNumCandidates
	}
	recs := make(map[string]float64)
	if a.Candidates != nil {
		for _, s := range a.Candidates.Recommend(record, false, numCandidates) {
			recs[s.ProductID] = s.Score
		}
	}

	// 1. 展开为事件列表：每个事件带 1-based 交易序号与天数 age
	var events []productEvent
	transactionAges := make([]int, len(record.History))
	for i, tr := range record.History {
		age := index.AgeDays(a.ReferenceTime, tr.Datetime)
		transactionAges[i] = age
		for _, p := range tr.Products {
			events = append(events, productEvent{
				productID: p.ProductID,
				quantity:  p.Quantity,
				tid:       i + 1,
				trAge:     age,
			})
		}
	}

	// 2. 客户级聚合，只算一次
	totalTransactions := len(record.History)
	var psum float64
	for _, tr := range record.History {
		psum += tr.PurchaseSum
	}
	averagePsum := psum / float64(totalTransactions)
	firstTransactionAge := transactionAges[0]
	lastTransactionAge := transactionAges[len(transactionAges)-1]
	favStore := record.FavoriteStore()
	lastStore := record.LastStore()

	maxTid := 0
	for _, ev := range events {
		if ev.tid > maxTid {
			maxTid = ev.tid
		}
	}

	clientVector := a.clientVector(events)

	// 3. 按商品分组，组内统计
	groups := make(map[string][]productEvent)
	for _, ev := range events {
		groups[ev.productID] = append(groups[ev.productID], ev)
	}
	purchased := make([]string, 0, len(groups))
	for id := range groups {
		purchased = append(purchased, id)
	}
	sort.Strings(purchased)

	rows := make([]*Row, 0, len(purchased)+len(recs))
	for _, productID := range purchased {
		part := groups[productID]
		row := NewRow(record.ClientID, productID)

		var quantity float64
		firstTid, lastTid := part[0].tid, part[0].tid
		firstAge, lastAge := part[0].trAge, part[0].trAge
		for _, ev := range part {
			quantity += ev.quantity
			if ev.tid < firstTid {
				firstTid = ev.tid
			}
			if ev.tid > lastTid {
				lastTid = ev.tid
			}
			// 商品第一次购买离现在最久：age 最大
			if ev.trAge > firstAge {
				firstAge = ev.trAge
			}
			if ev.trAge < lastAge {
				lastAge = ev.trAge
			}
		}

		row.Set(ColTotalPurchases, float64(totalTransactions))
		row.Set(ColAveragePsum, averagePsum)
		row.Set(ColCount, quantity)
		row.Set(ColPTrShare, float64(len(part))/float64(maxTid))
		row.Set(ColFirstTransaction, float64(firstTid)/float64(maxTid))
		row.Set(ColLastTransaction, float64(lastTid)/float64(maxTid))
		row.Set(ColFirstTransactionAge, float64(firstTransactionAge))
		row.Set(ColLastTransactionAge, float64(lastTransactionAge))
		row.Set(ColFirstProductTransactionAge, float64(firstAge))
		row.Set(ColLastProductTransactionAge, float64(lastAge))
		row.Set(ColClientProductDot, a.Vectors.Dot(clientVector, productID))
		row.Set(ColImplicitScore, recs[productID])
		a.setStoreShares(row, productID, favStore, lastStore)
		rows = append(rows, row)
	}

	// 4. 候选补充行：复用客户级聚合，商品历史相关列保持 0
	seen := groups
	candidates := make([]string, 0, len(recs))
	for productID := range recs {
		if _, ok := seen[productID]; !ok {
			candidates = append(candidates, productID)
		}
	}
	sort.Strings(candidates)

	for _, productID := range candidates {
		row := NewRow(record.ClientID, productID)
		row.Set(ColTotalPurchases, float64(totalTransactions))
		row.Set(ColAveragePsum, averagePsum)
		row.Set(ColFirstTransactionAge, float64(firstTransactionAge))
		row.Set(ColLastTransactionAge, float64(lastTransactionAge))
		row.Set(ColClientProductDot, a.Vectors.Dot(clientVector, productID))
		row.Set(ColImplicitScore, recs[productID])
		a.setStoreShares(row, productID, favStore, lastStore)
		rows = append(rows, row)
	}
	return rows
}

// clientVector 是客户购买向量：全部购买事件的商品向量等权平均，
// 跳过没有向量的商品。一个向量都没有时返回 nil，后续点积按 0 处理。
func (a *Assembler) clientVector(events []productEvent) []float64 {
	if len(a.Vectors) == 0 {
		return nil
	}
	var (
		sum []float64
		cnt int
	)
	for _, ev := range events {
		vec, ok := a.Vectors[ev.productID]
		if !ok {
			continue
		}
		if sum == nil {
			sum = make([]float64, len(vec))
		}
		for i := range vec {
			sum[i] += vec[i]
		}
		cnt++
	}
	if cnt == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float64(cnt)
	}
	return sum
}

func (a *Assembler) setStoreShares(row *Row, productID, favStore, lastStore string) {
	if a.StoreStats == nil {
		return
	}
	row.Set(ColFavProductStoreShare, a.StoreStats.ProductStoreShare(productID, favStore))
	row.Set(ColFavStoreProductShare, a.StoreStats.StoreProductShare(productID, favStore))
	row.Set(ColLastProductStoreShare, a.StoreStats.ProductStoreShare(productID, lastStore))
	row.Set(ColLastStoreProductShare, a.StoreStats.StoreProductShare(productID, lastStore))
}
