package store

// 训练产物在 KV 存储里的约定 key。训练端写、serving 端读，两边必须一致。
const (
	// KeyHotProducts 是全局热门榜（有序集合，score 为热度）。
	KeyHotProducts = "hot:products"
	// KeyItemVectors 是商品向量表（Hash，field 为商品 ID，value 为 JSON 数组）。
	KeyItemVectors = "vectors:items"
)
