// Package model 定义排序模型抽象及实现：本地线性模型（冒烟/降级用）
// 与远程 GBDT 打分服务（生产用）。
package model

// RankModel 是排序阶段的最小抽象：输入一行特征，输出一个可比较的分数。
// 具体实现可以是本地模型（LR）或远程服务（CatBoost/LightGBM/XGBoost）。
type RankModel interface {
	Name() string
	Predict(features map[string]float64) (float64, error)
}

// BatchRankModel 支持批量打分。一个客户的候选集合通常上百行，
// 能走批量接口就不要逐行调 RPC。
type BatchRankModel interface {
	RankModel
	PredictBatch(featuresList []map[string]float64) ([]float64, error)
}
