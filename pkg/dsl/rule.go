// Package dsl 提供基于 CEL (Common Expression Language) 的规则求值，
// 用于对候选商品做声明式过滤（例如把酒类商品排除出推荐结果）。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/nextbasket/core"
)

var (
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("feature", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译好的过滤规则，可并发复用。
//
// 表达式语法（CEL 标准语法），可访问：
//   - item.id / item.score
//   - label.<key>：商品 Label 的 value（不存在的 key 会报错，用 label.<key> != null 检查存在性）
//   - feature.<col>：特征行里的数值列，例如 feature.is_alcohol == 1.0
//   - rctx.client_id / rctx.age / rctx.gender
//
// 示例：
//   - `feature.is_alcohol == 1.0` → 命中酒类商品
//   - `label.recall_source == "hot" && item.score < 0.1` → 低分热门兜底项
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。编译一次、求值多次；表达式必须返回布尔。
func Compile(expr string) (*Rule, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (r *Rule) String() string { return r.expr }

// Eval 对单个候选求值，返回布尔结果。
func (r *Rule) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", r.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return boolean, got %T", r.expr, out.Value())
	}
	return result, nil
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labelAccessor := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labelAccessor[k] = v.Value
	}

	features := make(map[string]any, len(item.Features))
	for k, v := range item.Features {
		features[k] = v
	}

	itemInput := map[string]any{
		"id":    item.ID,
		"score": item.Score,
	}

	rctxInput := map[string]any{}
	if rctx != nil {
		rctxInput["client_id"] = rctx.ClientID
		rctxInput["age"] = rctx.Age
		rctxInput["gender"] = rctx.Gender
	}

	return map[string]any{
		"item":    itemInput,
		"label":   labelAccessor,
		"feature": features,
		"rctx":    rctxInput,
	}
}
