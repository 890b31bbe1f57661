package report_test

import (
	"bytes"
	"testing"

	"cognify-data/internal/domain"
	"cognify-data/internal/report"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateDailyExport(t *testing.T) {
	change := 10.0
	patient := &domain.Patient{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: "1950-12-10",
	}
	daily := &report.DailyReport{
		Date:  "06-03-2025",
		Label: "June 3, 2025",
		Games: map[string]report.DailyGame{
			"processQuest": {
				Metrics: map[string]any{"WordsPerMin": 110.0},
				Changes: map[string]*float64{"WordsPerMin": &change},
			},
		},
	}

	data, err := report.GenerateDailyExport(patient, daily)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Daily Report", "B1")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", name)

	age, err := f.GetCellValue("Daily Report", "B2")
	require.NoError(t, err)
	require.Equal(t, "74", age)

	header, err := f.GetCellValue("Daily Report", "A5")
	require.NoError(t, err)
	require.Equal(t, "Game", header)

	metric, err := f.GetCellValue("Daily Report", "B6")
	require.NoError(t, err)
	require.Equal(t, "Words Per Min", metric)

	pct, err := f.GetCellValue("Daily Report", "D6")
	require.NoError(t, err)
	require.Equal(t, "+10.0%", pct)
}

func TestGenerateAllTimeExport(t *testing.T) {
	charts := map[string]report.ChartInput{
		"Reaction Time": report.NewMultiSeries(map[string]report.MetricBucket{
			"antiGap": {"Jun 2025": {1, 2, 3, 4, 5, 6, 7, 8}},
		}, map[string]string{"antiGap": "Anti-Saccade, Gap Task"}),
	}

	data, err := report.GenerateAllTimeExport(charts)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	series, err := f.GetCellValue("Reaction Time", "A2")
	require.NoError(t, err)
	require.Equal(t, "Anti-Saccade, Gap Task", series)

	q1, err := f.GetCellValue("Reaction Time", "D2")
	require.NoError(t, err)
	require.Equal(t, "2.75", q1)
}
