package filter

import (
	"context"

	"github.com/rushteam/nextbasket/core"
	"github.com/rushteam/nextbasket/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的规则过滤器。
// 表达式返回 true 表示命中规则、物品被过滤。
// 规则在构造时编译一次，求值可并发。
//
// 示例：
//
//	f, _ := filter.NewRuleFilter("feature.is_alcohol == 1.0")
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译表达式并创建过滤器。表达式非法时返回错误，
// 配置错误要在启动期暴露，不能等到请求路径。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{rule: rule}, nil
}

// NewRuleFilters 批量编译表达式，任何一条非法都返回错误。
func NewRuleFilters(exprs []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := NewRuleFilter(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule(" + f.rule.String() + ")"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.rule.Eval(item, rctx)
}
