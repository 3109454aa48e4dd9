package factorize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rushteam/nextbasket/core"
)

// ItemVectors 是商品隐向量表：商品 ID → 定长 float 向量（长度 = 分解 rank）。
// 训练期产出一次、落盘，serving 启动时只读加载，进程生命周期内不可变。
type ItemVectors map[string][]float64

// Rank 返回向量维度；空表返回 0。
func (v ItemVectors) Rank() int {
	for _, vec := range v {
		return len(vec)
	}
	return 0
}

// Dot 计算任意向量与指定商品向量的点积；商品缺向量时返回 0（冷启动中性值）。
func (v ItemVectors) Dot(vec []float64, productID string) float64 {
	item, ok := v[productID]
	if !ok {
		return 0
	}
	return dot(vec, item)
}

// LoadItemVectors 从 JSON 文件加载向量表（商品 ID → float 数组）。
func LoadItemVectors(path string) (ItemVectors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	var vectors ItemVectors
	if err := json.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("parse vectors: %w", err)
	}
	return vectors, nil
}

// Save 把向量表写成 JSON 文件。
func (v ItemVectors) Save(path string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal vectors: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadItemVectorsStore 从 KV 存储的 Hash 加载向量表（字段为商品 ID，值为 JSON 数组）。
func LoadItemVectorsStore(ctx context.Context, kv core.KeyValueStore, key string) (ItemVectors, error) {
	fields, err := kv.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load vectors from %s: %w", kv.Name(), err)
	}
	vectors := make(ItemVectors, len(fields))
	for productID, raw := range fields {
		var vec []float64
		if err := json.Unmarshal(raw, &vec); err != nil {
			return nil, fmt.Errorf("parse vector %s: %w", productID, err)
		}
		vectors[productID] = vec
	}
	return vectors, nil
}

// SaveToStore 把向量表写入 KV 存储的 Hash。
func (v ItemVectors) SaveToStore(ctx context.Context, kv core.KeyValueStore, key string) error {
	for productID, vec := range v {
		data, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		if err := kv.HSet(ctx, key, productID, data); err != nil {
			return err
		}
	}
	return nil
}
