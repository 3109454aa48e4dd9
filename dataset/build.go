package dataset

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/index"
)

// 离线索引的并行构建：客户级聚合没有跨客户依赖，按客户切片给 worker，
// 最后把分片结果合并。合并只做整数加法（结合且交换），分片顺序无关，
// 所以同一份语料不管怎么分片，最终计数恒等。

// BuildCoocParallel 并行构建商品共现表。workers <= 0 时取 GOMAXPROCS。
func BuildCoocParallel(ctx context.Context, records []*core.ClientRecord, workers int) (*index.CoocTable, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	shards := shardRecords(records, workers)
	partials := make([]*index.CoocTable, len(shards))

	eg, _ := errgroup.WithContext(ctx)
	for i, shard := range shards {
		i, shard := i, shard
		eg.Go(func() error {
			partials[i] = index.BuildCoocTable(shard)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := index.NewCoocTable()
	for _, p := range partials {
		total.Merge(p)
	}
	return total, nil
}

// BuildStoreStatsParallel 并行构建商品×门店统计。
// 返回的统计尚未 Optimize，调用方在确认不再 Merge 后自行优化。
func BuildStoreStatsParallel(ctx context.Context, records []*core.ClientRecord, workers int) (*index.ProductStoreStats, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	shards := shardRecords(records, workers)
	partials := make([]*index.ProductStoreStats, len(shards))

	eg, _ := errgroup.WithContext(ctx)
	for i, shard := range shards {
		i, shard := i, shard
		eg.Go(func() error {
			partials[i] = index.BuildProductStoreStats(shard)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := index.NewProductStoreStats()
	for _, p := range partials {
		total.Merge(p)
	}
	return total, nil
}

// shardRecords 把记录切成至多 n 片，片内保持原顺序。
func shardRecords(records []*core.ClientRecord, n int) [][]*core.ClientRecord {
	if len(records) == 0 {
		return nil
	}
	if n > len(records) {
		n = len(records)
	}
	size := (len(records) + n - 1) / n
	var shards [][]*core.ClientRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		shards = append(shards, records[start:end])
	}
	return shards
}
