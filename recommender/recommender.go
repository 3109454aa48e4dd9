// Package recommender 是 serving 端的编排层：特征组装、元数据连接、
// 模型打分、规则过滤、热门兜底补位、去重截断。
//
// 契约：Recommend 永不失败。任何内部错误（冷启动、空历史、上游模型故障）
// 都吸收在这一层，退化成全局热门列表，响应永远非空且长度有界。
package recommender

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/feature"
	"github.com/rushteam/nextbasket/filter"
	"github.com/rushteam/nextbasket/model"
	"github.com/rushteam/nextbasket/pkg/utils"
	"github.com/rushteam/nextbasket/rerank"
)

// DefaultLimit 是推荐列表的默认长度上限。
const DefaultLimit = 30

// DefaultAge 与 DefaultGender 是请求未携带人口属性时的默认值。
const (
	DefaultAge    = 30
	DefaultGender = "U"
)

// Recommender 把一次请求变成一个有序、去重、长度有界的商品 ID 列表。
type Recommender struct {
	Assembler *feature.Assembler
	Catalog   *feature.Catalog
	Model     model.RankModel
	Filters   []filter.Filter
	Popular   []string // 全局热门榜，按热度降序
	Limit     int      // <= 0 表示 DefaultLimit
	Logger    zerolog.Logger
}

// Recommend 为单个请求生成推荐列表。
//
// 链路：组装特征 → 目录左连接 → 补人口属性 → 模型打分 → 按分数降序 →
// 规则过滤 → 追加热门兜底 → 首次出现去重 → 截断。
// 空历史直接短路到热门列表；模型或特征层出错走同一条兜底路径并打日志，
// 错误绝不向上传播。
func (r *Recommender) Recommend(ctx context.Context, rctx *core.RecommendContext) []string {
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	record := rctx.Record()
	if record.Empty() {
		return rerank.MergeWithPopular(nil, r.Popular, limit)
	}

	candidates, err := r.rankCandidates(ctx, rctx)
	if err != nil {
		r.Logger.Warn().
			Err(err).
			Str("client_id", rctx.ClientID).
			Msg("recommend degraded to popular fallback")
		return rerank.MergeWithPopular(nil, r.Popular, limit)
	}
	return rerank.MergeWithPopular(candidates, r.Popular, limit)
}

// rankCandidates 执行可能失败的部分：特征、打分、过滤。
// 返回按模型分数降序的候选商品 ID。
func (r *Recommender) rankCandidates(ctx context.Context, rctx *core.RecommendContext) ([]string, error) {
	rows := r.Assembler.AssembleClient(rctx.Record())
	if len(rows) == 0 {
		return nil, nil
	}
	r.Catalog.Enrich(rows)

	// 人口属性默认值在解码边界补齐，这里按上下文原样写入。
	// 显式传入的 0 岁是合法值，不会被改写。
	for _, row := range rows {
		row.Set(feature.ColAge, float64(rctx.Age))
		row.Set(feature.ColGender, feature.EncodeGender(rctx.Gender))
	}

	items := make([]*core.Item, len(rows))
	for i, row := range rows {
		it := core.NewItem(row.ProductID)
		it.Features = row.Features
		items[i] = it
	}

	if err := r.score(items); err != nil {
		return nil, err
	}
	items = r.applyFilters(ctx, rctx, items)

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out, nil
}

// score 用模型给候选打分并按分数降序稳定排序。
// Model 为 nil 时保持组装顺序（退化为无排序的候选直出）。
func (r *Recommender) score(items []*core.Item) error {
	if r.Model == nil {
		return nil
	}

	var scores []float64
	var err error
	if batch, ok := r.Model.(model.BatchRankModel); ok {
		featuresList := make([]map[string]float64, len(items))
		for i, it := range items {
			featuresList[i] = it.Features
		}
		scores, err = batch.PredictBatch(featuresList)
		if err != nil {
			return err
		}
	} else {
		scores = make([]float64, len(items))
		for i, it := range items {
			scores[i], err = r.Model.Predict(it.Features)
			if err != nil {
				return err
			}
		}
	}

	for i, it := range items {
		it.Score = scores[i]
		it.PutLabel("rank_model", utils.Label{Value: r.Model.Name(), Source: "rank"})
	}
	sortByScore(items)
	return nil
}

// applyFilters 在排序后应用规则过滤。单个过滤器出错时跳过它、保留物品。
func (r *Recommender) applyFilters(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) []*core.Item {
	if len(r.Filters) == 0 {
		return items
	}
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		keep := true
		for _, f := range r.Filters {
			hit, err := f.ShouldFilter(ctx, rctx, it)
			if err != nil {
				continue
			}
			if hit {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, it)
		}
	}
	return out
}
