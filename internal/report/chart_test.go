package report_test

import (
	"testing"

	"cognify-data/internal/report"

	"github.com/stretchr/testify/require"
)

func TestBarData_DispatchesOnKind(t *testing.T) {
	flat := report.NewFlat(report.MetricBucket{"Jan 1, 2025": {2, 4}})
	require.Equal(t, map[string]map[string]float64{
		"": {"Jan 1, 2025": 3},
	}, report.BarData(flat))

	multi := report.NewMultiSeries(map[string]report.MetricBucket{
		"antiGap": {"Jan 1, 2025": {200, 300}},
		"proGap":  {"Jan 1, 2025": {150}},
	}, nil)
	bars := report.BarData(multi)
	require.Equal(t, 250.0, bars["antiGap"]["Jan 1, 2025"])
	require.Equal(t, 150.0, bars["proGap"]["Jan 1, 2025"])

	fixed := report.NewFixedSeries(map[string][]float64{"Gap Task": {1, 3}}, nil)
	require.Equal(t, 2.0, report.BarData(fixed)["Gap Task"][""])
}

func TestBoxPlotData_SkipsEmptyBuckets(t *testing.T) {
	input := report.NewFlat(report.MetricBucket{
		"Jan 1, 2025": {1, 2, 3, 4, 5, 6, 7, 8},
		"Jan 2, 2025": {},
	})
	boxes := report.BoxPlotData(input)
	require.Contains(t, boxes[""], "Jan 1, 2025")
	require.NotContains(t, boxes[""], "Jan 2, 2025")
	require.Equal(t, [5]float64{1, 2.75, 4.5, 6.25, 8}, boxes[""]["Jan 1, 2025"])
}

func TestChartInput_SeriesLabelsCarriedThrough(t *testing.T) {
	labels := map[string]string{"antiGap": "Anti-Saccade, Gap Task"}
	input := report.NewMultiSeries(map[string]report.MetricBucket{"antiGap": {}}, labels)
	require.Equal(t, report.KindMultiSeries, input.Kind)
	require.Equal(t, labels, input.SeriesLabels)
}
