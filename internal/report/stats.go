package report

import "sort"

// MetricBucket 日期标签 -> 观测值序列（聚合的工作结构，不落库）
type MetricBucket map[string][]float64

// Quartiles 五数概括 [min, Q1, median, Q3, max]。
// 分位取序号 pos = (n-1)*q 的线性插值，必须与箱线图渲染端逐位一致。
// 空输入返回 ok=false。
func Quartiles(points []float64) ([5]float64, bool) {
	if len(points) == 0 {
		return [5]float64{}, false
	}
	sorted := append([]float64(nil), points...)
	sort.Float64s(sorted)

	quartile := func(q float64) float64 {
		pos := float64(len(sorted)-1) * q
		base := int(pos)
		rest := pos - float64(base)
		if base+1 < len(sorted) {
			return sorted[base] + rest*(sorted[base+1]-sorted[base])
		}
		return sorted[base]
	}

	return [5]float64{
		sorted[0],
		quartile(0.25),
		quartile(0.5),
		quartile(0.75),
		sorted[len(sorted)-1],
	}, true
}

// PercentChange 环比变化率。previous 为 0 返回 nil（除零即"无可比"）。
func PercentChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	v := (current - previous) / previous * 100
	return &v
}

// Mean 算术平均，空序列返回 0
func Mean(points []float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p
	}
	return sum / float64(len(points))
}

// MeanPerBucket 柱状图系列：每个日期桶坍缩为均值
func MeanPerBucket(bucket MetricBucket) map[string]float64 {
	out := make(map[string]float64, len(bucket))
	for label, points := range bucket {
		out[label] = Mean(points)
	}
	return out
}
