package eval

import (
	"math"
	"testing"
)

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name        string
		actual      map[string]bool
		recommended []string
		k           int
		want        float64
	}{
		{
			name:        "全部命中",
			actual:      map[string]bool{"a": true, "b": true},
			recommended: []string{"a", "b"},
			k:           30,
			want:        1, // (1/1 + 2/2) / 2
		},
		{
			name:        "第二位才命中",
			actual:      map[string]bool{"b": true},
			recommended: []string{"a", "b"},
			k:           30,
			want:        0.5, // (1/2) / 1
		},
		{
			name:        "命中分散",
			actual:      map[string]bool{"a": true, "c": true},
			recommended: []string{"a", "b", "c"},
			k:           30,
			want:        (1.0 + 2.0/3) / 2,
		},
		{
			name:        "k 截断后不再计入",
			actual:      map[string]bool{"c": true},
			recommended: []string{"a", "b", "c"},
			k:           2,
			want:        0,
		},
		{
			name:        "分母取 min(|actual|, k)",
			actual:      map[string]bool{"a": true, "b": true, "c": true},
			recommended: []string{"a"},
			k:           1,
			want:        1, // 1/1 除以 min(3, 1)
		},
		{
			name:        "空 ground-truth",
			actual:      nil,
			recommended: []string{"a"},
			k:           30,
			want:        0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AveragePrecision(tt.actual, tt.recommended, tt.k)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AP = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestNormalizedAveragePrecisionDedupes(t *testing.T) {
	// ground-truth 里重复商品只算一个
	got := NormalizedAveragePrecision([]string{"a", "a", "b"}, []string{"a", "b"}, DefaultK)
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("去重后应为满分: %v", got)
	}

	if NormalizedAveragePrecision(nil, []string{"a"}, DefaultK) != 0 {
		t.Error("空 ground-truth 应返回 0")
	}
}
