package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ProductLine 是一笔交易中的一行商品。
// Price 语义约定：按行金额（非单价），摄入层原样透传，任何地方都不做除以 Quantity 的归一化。
type ProductLine struct {
	ProductID string  `json:"product_id"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"` // 可以为 0 或小数（称重商品）
}

// Transaction 是一笔交易：时间、总额、门店、商品行。解析后不可变。
type Transaction struct {
	Datetime    time.Time     `json:"-"`
	PurchaseSum float64       `json:"purchase_sum"`
	StoreID     string        `json:"store_id"`
	Products    []ProductLine `json:"products"`
}

// datetimeLayouts 是交易时间支持的 ISO-8601 变体，按出现频率排列。
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseDatetime 解析交易时间字符串。
func ParseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse datetime %q: unsupported format", s)
}

type transactionJSON struct {
	Datetime    string        `json:"datetime"`
	PurchaseSum float64       `json:"purchase_sum"`
	StoreID     string        `json:"store_id"`
	Products    []ProductLine `json:"products"`
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	dt, err := ParseDatetime(raw.Datetime)
	if err != nil {
		return err
	}
	t.Datetime = dt
	t.PurchaseSum = raw.PurchaseSum
	t.StoreID = raw.StoreID
	t.Products = raw.Products
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		Datetime:    t.Datetime.Format("2006-01-02 15:04:05"),
		PurchaseSum: t.PurchaseSum,
		StoreID:     t.StoreID,
		Products:    t.Products,
	})
}

// ClientRecord 是一个持卡客户的完整交易历史。
// 空历史是合法的退化输入：下游直接短路到"无特征"。
type ClientRecord struct {
	ClientID string        `json:"client_id"`
	History  []Transaction `json:"transaction_history"`
}

// SortHistory 按交易时间升序稳定排序。
// 上游文件有的按文件顺序、有的按时间排好，摄入边界统一排序一次，
// 之后所有"最近/最后一家门店"逻辑都可以假设时间有序。
func (c *ClientRecord) SortHistory() {
	sort.SliceStable(c.History, func(i, j int) bool {
		return c.History[i].Datetime.Before(c.History[j].Datetime)
	})
}

// Empty 表示该客户没有任何可用历史。
func (c *ClientRecord) Empty() bool {
	return c == nil || len(c.History) == 0
}

// ProductIDs 按事件顺序展开全部购买过的商品（同一商品出现多次就返回多次）。
func (c *ClientRecord) ProductIDs() []string {
	if c == nil {
		return nil
	}
	var ids []string
	for _, tr := range c.History {
		for _, p := range tr.Products {
			ids = append(ids, p.ProductID)
		}
	}
	return ids
}

// FavoriteStore 返回出现次数最多的门店；并列时取先出现的。空历史返回 ""。
func (c *ClientRecord) FavoriteStore() string {
	if c.Empty() {
		return ""
	}
	counts := make(map[string]int, len(c.History))
	order := make([]string, 0, len(c.History))
	for _, tr := range c.History {
		if _, seen := counts[tr.StoreID]; !seen {
			order = append(order, tr.StoreID)
		}
		counts[tr.StoreID]++
	}
	best := order[0]
	for _, s := range order {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

// LastStore 返回最后一笔交易的门店。空历史返回 ""。
func (c *ClientRecord) LastStore() string {
	if c.Empty() {
		return ""
	}
	return c.History[len(c.History)-1].StoreID
}
