package config

import (
	"fmt"
	"time"

	"github.com/rushteam/nextbasket/filter"
	"github.com/rushteam/nextbasket/model"
	"github.com/rushteam/nextbasket/pipeline"
	"github.com/rushteam/nextbasket/pkg/conv"
	"github.com/rushteam/nextbasket/rank"
	"github.com/rushteam/nextbasket/recall"
	"github.com/rushteam/nextbasket/rerank"
)

// DefaultFactory 返回包含全部内置 Node 的工厂，配合 pipeline.Config
// 用 YAML 声明式组装推荐链路。
// 依赖大对象的召回源（共现表、隐向量）不走配置工厂，由进程启动代码注入。
func DefaultFactory() *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.hot", buildHotNode)
	factory.Register("recall.history", buildHistoryNode)
	factory.Register("recall.fanout", buildFanoutNode)

	factory.Register("rank.lr", buildLRNode)
	factory.Register("rank.rpc", buildRPCNode)

	factory.Register("rerank.topn", buildTopNNode)
	factory.Register("rerank.fallback", buildFallbackNode)

	factory.Register("filter.rule", buildRuleFilterNode)

	return factory
}

func buildHotNode(cfg map[string]any) (pipeline.Node, error) {
	ids := conv.SliceAnyToString(cfg["ids"])
	if ids == nil {
		ids = []string{}
	}
	return &recall.Hot{
		IDs:  ids,
		Key:  conv.ConfigGet[string](cfg, "key", ""),
		TopK: int(conv.ConfigGetInt64(cfg, "top_k", 0)),
	}, nil
}

func buildHistoryNode(cfg map[string]any) (pipeline.Node, error) {
	return &recall.PopularHistory{
		TopK: int(conv.ConfigGetInt64(cfg, "top_k", 0)),
	}, nil
}

func buildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesCfg, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesCfg))
	for _, sc := range sourcesCfg {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		switch sourceType := conv.ConfigGet[string](sourceMap, "type", ""); sourceType {
		case "hot":
			node, err := buildHotNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.Hot))
		case "history":
			node, err := buildHistoryNode(sourceMap)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.PopularHistory))
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet[bool](cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet[string](cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func buildLRNode(cfg map[string]any) (pipeline.Node, error) {
	weightsMap, ok := cfg["weights"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("weights not found")
	}
	return &rank.ModelNode{
		Model: &model.LRModel{
			Bias:    conv.ConfigGet[float64](cfg, "bias", 0.0),
			Weights: conv.MapToFloat64(weightsMap),
		},
	}, nil
}

func buildRPCNode(cfg map[string]any) (pipeline.Node, error) {
	endpoint := conv.ConfigGet[string](cfg, "endpoint", "")
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	timeout := time.Duration(conv.ConfigGetInt64(cfg, "timeout_seconds", 5)) * time.Second
	name := conv.ConfigGet[string](cfg, "name", "rpc")
	return &rank.ModelNode{Model: model.NewRPCModel(name, endpoint, timeout)}, nil
}

func buildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func buildFallbackNode(cfg map[string]any) (pipeline.Node, error) {
	popular := conv.SliceAnyToString(cfg["popular"])
	return &rerank.PopularFallback{
		Popular: popular,
		Limit:   int(conv.ConfigGetInt64(cfg, "limit", 0)),
	}, nil
}

func buildRuleFilterNode(cfg map[string]any) (pipeline.Node, error) {
	exprs := conv.SliceAnyToString(cfg["rules"])
	if len(exprs) == 0 {
		if expr := conv.ConfigGet[string](cfg, "rule", ""); expr != "" {
			exprs = []string{expr}
		}
	}
	filters, err := filter.NewRuleFilters(exprs)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: filters}, nil
}
