package core

import "github.com/rushteam/nextbasket/pkg/utils"

// RecommendContext 承载一次推荐请求的客户信息，贯穿整个链路透传。
// 交易历史随请求内联传入（不查外部画像服务），Age/Gender 是可选的人口属性。
type RecommendContext struct {
	ClientID string
	Age      int    // 解码边界已补默认值，0 是显式传入的合法年龄
	Gender   string // "U" / "M" / "F"
	History  []Transaction

	// Labels 是请求级标签，可驱动链路行为（例如冷启动客户标记）。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（调试开关、实验分组等）。
	Params map[string]any
}

// Record 以 ClientRecord 视角访问请求中的交易历史。
func (rctx *RecommendContext) Record() *ClientRecord {
	if rctx == nil {
		return nil
	}
	return &ClientRecord{ClientID: rctx.ClientID, History: rctx.History}
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
