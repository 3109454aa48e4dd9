// Package eval 提供离线评估指标。
package eval

// DefaultK 是评估截断位置，与推荐列表长度上限一致。
const DefaultK = 30

// AveragePrecision 计算推荐列表前 k 位对 actual 集合的平均精度。
// 第 i 位（1-based）命中时累加 hits/i，最后除以 min(|actual|, k)。
func AveragePrecision(actual map[string]bool, recommended []string, k int) float64 {
	if len(actual) == 0 || k <= 0 {
		return 0
	}
	var (
		apSum float64
		hits  int
	)
	for i := 0; i < k && i < len(recommended); i++ {
		if actual[recommended[i]] {
			hits++
			apSum += float64(hits) / float64(i+1)
		}
	}
	denom := len(actual)
	if k < denom {
		denom = k
	}
	return apSum / float64(denom)
}

// NormalizedAveragePrecision 对 ground-truth 去重后计算 AP@k。
// 空 ground-truth 返回 0。
func NormalizedAveragePrecision(actual []string, recommended []string, k int) float64 {
	set := make(map[string]bool, len(actual))
	for _, id := range actual {
		set[id] = true
	}
	if len(set) == 0 {
		return 0
	}
	return AveragePrecision(set, recommended, k)
}
