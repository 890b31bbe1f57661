package report

// ChartKind 图表输入的形态标签
type ChartKind string

const (
	// KindFlat 单系列：日期标签 -> 观测值
	KindFlat ChartKind = "flat"
	// KindMultiSeries 多系列：系列键 -> 日期标签 -> 观测值
	KindMultiSeries ChartKind = "multiSeries"
	// KindFixedSeries 固定系列：系列键 -> 观测值（无日期维度）
	KindFixedSeries ChartKind = "fixedSeries"
)

// ChartInput 渲染端的标签化输入。
// 渲染按 Kind 分派，杜绝布尔开关决定数据形状的旧做法。
type ChartInput struct {
	Kind  ChartKind                    `json:"kind"`
	Flat  MetricBucket                 `json:"flat,omitempty"`
	Multi map[string]MetricBucket      `json:"multi,omitempty"`
	Fixed map[string][]float64         `json:"fixed,omitempty"`
	// SeriesLabels 系列键的展示名（渲染端图例）
	SeriesLabels map[string]string `json:"seriesLabels,omitempty"`
}

// NewFlat 构造单系列输入
func NewFlat(bucket MetricBucket) ChartInput {
	return ChartInput{Kind: KindFlat, Flat: bucket}
}

// NewMultiSeries 构造多系列输入
func NewMultiSeries(series map[string]MetricBucket, labels map[string]string) ChartInput {
	return ChartInput{Kind: KindMultiSeries, Multi: series, SeriesLabels: labels}
}

// NewFixedSeries 构造固定系列输入
func NewFixedSeries(series map[string][]float64, labels map[string]string) ChartInput {
	return ChartInput{Kind: KindFixedSeries, Fixed: series, SeriesLabels: labels}
}

// BarData 柱状图数据：每桶取均值。多系列返回 系列 -> 标签 -> 均值。
func BarData(input ChartInput) map[string]map[string]float64 {
	switch input.Kind {
	case KindFlat:
		return map[string]map[string]float64{"": MeanPerBucket(input.Flat)}
	case KindMultiSeries:
		out := make(map[string]map[string]float64, len(input.Multi))
		for series, bucket := range input.Multi {
			out[series] = MeanPerBucket(bucket)
		}
		return out
	case KindFixedSeries:
		out := make(map[string]map[string]float64, len(input.Fixed))
		for series, points := range input.Fixed {
			out[series] = map[string]float64{"": Mean(points)}
		}
		return out
	}
	return nil
}

// BoxPlotData 箱线图数据：每桶五数概括。观测不足的桶被跳过。
func BoxPlotData(input ChartInput) map[string]map[string][5]float64 {
	fromBucket := func(bucket MetricBucket) map[string][5]float64 {
		out := make(map[string][5]float64, len(bucket))
		for label, points := range bucket {
			if q, ok := Quartiles(points); ok {
				out[label] = q
			}
		}
		return out
	}

	switch input.Kind {
	case KindFlat:
		return map[string]map[string][5]float64{"": fromBucket(input.Flat)}
	case KindMultiSeries:
		out := make(map[string]map[string][5]float64, len(input.Multi))
		for series, bucket := range input.Multi {
			out[series] = fromBucket(bucket)
		}
		return out
	case KindFixedSeries:
		out := make(map[string]map[string][5]float64, len(input.Fixed))
		for series, points := range input.Fixed {
			if q, ok := Quartiles(points); ok {
				out[series] = map[string][5]float64{"": q}
			}
		}
		return out
	}
	return nil
}
