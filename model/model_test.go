package model

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLRModelPredict(t *testing.T) {
	m := &LRModel{
		Bias:    0,
		Weights: map[string]float64{"count": 1, "implicit_score": 2},
	}

	score, err := m.Predict(map[string]float64{"count": 0, "implicit_score": 0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-0.5) > 1e-9 {
		t.Errorf("零输入的 sigmoid 应为 0.5，实际 %v", score)
	}

	low, _ := m.Predict(map[string]float64{"count": 1})
	high, _ := m.Predict(map[string]float64{"count": 3})
	if high <= low {
		t.Errorf("特征值越大分数应越高: %v <= %v", high, low)
	}

	// 未知特征列被忽略
	same, _ := m.Predict(map[string]float64{"count": 1, "unknown": 100})
	if same != low {
		t.Error("权重表外的特征不应影响分数")
	}
}

func TestLRModelPredictBatch(t *testing.T) {
	m := &LRModel{Weights: map[string]float64{"count": 1}}
	featuresList := []map[string]float64{
		{"count": 1},
		{"count": 2},
	}
	scores, err := m.PredictBatch(featuresList)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 {
		t.Fatalf("批量结果数 = %d", len(scores))
	}
	single, _ := m.Predict(featuresList[0])
	if scores[0] != single {
		t.Error("批量与单行打分应一致")
	}
}

func TestRPCModelPredictBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FeaturesList []map[string]float64 `json:"features_list"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("请求体解析失败: %v", err)
		}
		scores := make([]float64, len(req.FeaturesList))
		for i, features := range req.FeaturesList {
			scores[i] = features["count"]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"scores": scores})
	}))
	defer srv.Close()

	m := NewRPCModel("test", srv.URL, 0)
	scores, err := m.PredictBatch([]map[string]float64{{"count": 3}, {"count": 7}})
	if err != nil {
		t.Fatal(err)
	}
	if scores[0] != 3 || scores[1] != 7 {
		t.Errorf("scores = %v", scores)
	}
}

func TestRPCModelScoresCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"scores": []float64{1}})
	}))
	defer srv.Close()

	m := NewRPCModel("test", srv.URL, 0)
	if _, err := m.PredictBatch([]map[string]float64{{}, {}}); err == nil {
		t.Error("分数条数不匹配应返回错误")
	}
}

func TestRPCModelServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewRPCModel("test", srv.URL, 0)
	if _, err := m.Predict(map[string]float64{}); err == nil {
		t.Error("上游 5xx 应返回错误")
	}
}
