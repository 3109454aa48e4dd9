package model

import (
	"encoding/json"
	"math"
	"os"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 排序模型。
// 生产排序走远程 GBDT 服务；LR 用于本地冒烟测试和没有外部服务时的基线排序。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
type LRModel struct {
	Bias    float64
	Weights map[string]float64 // 特征列名 → 系数
}

// LoadLRModel 从 JSON 文件加载权重：{"bias": ..., "weights": {"count": ..., ...}}。
func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias    float64            `json:"bias"`
		Weights map[string]float64 `json:"weights"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &LRModel{Bias: raw.Bias, Weights: raw.Weights}, nil
}

func (m *LRModel) Name() string { return "lr" }

func (m *LRModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, v := range features {
		if w, ok := m.Weights[k]; ok {
			score += w * v
		}
	}
	return 1 / (1 + math.Exp(-score)), nil
}

// PredictBatch 实现 BatchRankModel，逐行本地计算。
func (m *LRModel) PredictBatch(featuresList []map[string]float64) ([]float64, error) {
	scores := make([]float64, len(featuresList))
	for i, features := range featuresList {
		s, err := m.Predict(features)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}
