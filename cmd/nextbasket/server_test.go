package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rushteam/nextbasket/recommender"
)

func TestRecommendRequestContext(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAge    int
		wantGender string
	}{
		{"缺省时补默认人口属性", `{"client_id":"c1"}`, recommender.DefaultAge, recommender.DefaultGender},
		{"显式 0 岁原样保留", `{"client_id":"c1","age":0}`, 0, recommender.DefaultGender},
		{"显式属性透传", `{"client_id":"c1","age":42,"gender":"F"}`, 42, "F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req recommendRequest
			if err := json.NewDecoder(strings.NewReader(tt.body)).Decode(&req); err != nil {
				t.Fatalf("解码失败: %v", err)
			}
			rctx := req.context()
			if rctx.Age != tt.wantAge {
				t.Errorf("Age = %d, 期望 %d", rctx.Age, tt.wantAge)
			}
			if rctx.Gender != tt.wantGender {
				t.Errorf("Gender = %q, 期望 %q", rctx.Gender, tt.wantGender)
			}
			if rctx.ClientID != "c1" {
				t.Errorf("ClientID = %q", rctx.ClientID)
			}
		})
	}
}
