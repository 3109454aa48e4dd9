// Package feature 负责特征组装：把客户交易历史、商品隐向量、召回分数与
// 商品门店统计拼成一行行固定列的特征，喂给下游排序模型。
//
// 列集合是固定 schema：每一行都包含全部列，候选补充行用显式默认值 0 填充,
// 绝不允许按行缺列（下游模型按列位取值，缺列会静默错位）。
package feature

// 特征列名。列顺序由 Columns 定义，离线训练与在线打分共用。
const (
	ColTotalPurchases             = "total_purchases"
	ColAveragePsum                = "average_psum"
	ColCount                      = "count"
	ColPTrShare                   = "p_tr_share"
	ColFirstTransaction           = "first_transaction"
	ColLastTransaction            = "last_transaction"
	ColFirstTransactionAge        = "first_transaction_age"
	ColLastTransactionAge         = "last_transaction_age"
	ColFirstProductTransactionAge = "first_product_transaction_age"
	ColLastProductTransactionAge  = "last_product_transaction_age"
	ColClientProductDot           = "client_product_dot"
	ColImplicitScore              = "implicit_score"

	ColFavProductStoreShare  = "fav_product_store_share"
	ColFavStoreProductShare  = "fav_store_product_share"
	ColLastProductStoreShare = "last_product_store_share"
	ColLastStoreProductShare = "last_store_product_share"

	ColAge    = "age"
	ColGender = "gender"

	// 商品目录元数据列（左连接，缺失补 0）
	ColLevel1         = "level_1"
	ColLevel2         = "level_2"
	ColLevel3         = "level_3"
	ColLevel4         = "level_4"
	ColSegmentID      = "segment_id"
	ColBrandID        = "brand_id"
	ColVendorID       = "vendor_id"
	ColNetto          = "netto"
	ColIsOwnTrademark = "is_own_trademark"
	ColIsAlcohol      = "is_alcohol"

	// 商品全局聚合列（训练语料统计，缺失补 0）
	ColMaxDt         = "max_dt"
	ColMinDt         = "min_dt"
	ColAvgDt         = "avg_dt"
	ColMaxP          = "max_p"
	ColMinP          = "min_p"
	ColAvgP          = "avg_p"
	ColMaxQ          = "max_q"
	ColMinQ          = "min_q"
	ColAvgQ          = "avg_q"
	ColUniqueClients = "unique_clients"
)

// Columns 是特征列的规范顺序。训练导出 CSV 与在线 predict 都按这个顺序取值。
var Columns = []string{
	ColTotalPurchases,
	ColAveragePsum,
	ColCount,
	ColPTrShare,
	ColFirstTransaction,
	ColLastTransaction,
	ColFirstTransactionAge,
	ColLastTransactionAge,
	ColFirstProductTransactionAge,
	ColLastProductTransactionAge,
	ColClientProductDot,
	ColImplicitScore,
	ColFavProductStoreShare,
	ColFavStoreProductShare,
	ColLastProductStoreShare,
	ColLastStoreProductShare,
	ColLevel1,
	ColLevel2,
	ColLevel3,
	ColLevel4,
	ColSegmentID,
	ColBrandID,
	ColVendorID,
	ColNetto,
	ColIsOwnTrademark,
	ColIsAlcohol,
	ColMaxDt,
	ColMinDt,
	ColAvgDt,
	ColMaxP,
	ColMinP,
	ColAvgP,
	ColMaxQ,
	ColMinQ,
	ColAvgQ,
	ColUniqueClients,
	ColAge,
	ColGender,
}

// Row 是一条 (client, product) 特征行。Features 覆盖 Columns 的全部列。
type Row struct {
	ClientID  string
	ProductID string
	Features  map[string]float64
}

// NewRow 创建一行特征，所有列显式初始化为 0。
func NewRow(clientID, productID string) *Row {
	features := make(map[string]float64, len(Columns))
	for _, col := range Columns {
		features[col] = 0
	}
	return &Row{
		ClientID:  clientID,
		ProductID: productID,
		Features:  features,
	}
}

// Set 写入一列。未知列名直接忽略，保持 schema 固定。
func (r *Row) Set(col string, v float64) {
	if _, ok := r.Features[col]; ok {
		r.Features[col] = v
	}
}

// Get 读取一列，未知列返回 0。
func (r *Row) Get(col string) float64 {
	return r.Features[col]
}

// Vector 按 Columns 顺序导出特征向量。
func (r *Row) Vector() []float64 {
	out := make([]float64, len(Columns))
	for i, col := range Columns {
		out[i] = r.Features[col]
	}
	return out
}

// EncodeGender 把性别编码成稳定的数值表示：U(未知)=0, M=1, F=2。
// 其他取值一律按未知处理。
func EncodeGender(g string) float64 {
	switch g {
	case "M", "m":
		return 1
	case "F", "f":
		return 2
	default:
		return 0
	}
}
