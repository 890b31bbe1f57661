package report

import (
	"bytes"
	"fmt"
	"sort"

	"cognify-data/internal/dates"
	"cognify-data/internal/domain"
	"cognify-data/internal/format"

	"github.com/xuri/excelize/v2"
)

// DailyExportHeader 日报导出表头
var DailyExportHeader = []string{
	"Game",
	"Metric",
	"Value",
	"Change vs Previous",
}

// GenerateDailyExport 生成日报 Excel 文件。
// 首行写患者信息，随后每个游戏一段指标行。
func GenerateDailyExport(patient *domain.Patient, report *DailyReport) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Daily Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 患者信息块
	age := ""
	if day, err := dates.ParseKey(report.Date); err == nil {
		if years, err := dates.Age(patient.DateOfBirth, dates.ISODate(day)); err == nil {
			age = fmt.Sprintf("%d", years)
		}
	}
	infoRows := [][2]string{
		{"Patient", patient.FirstName + " " + patient.LastName},
		{"Age", age},
		{"Report Date", report.Label},
	}
	row := 1
	for _, pair := range infoRows {
		if err := setReportCell(f, sheetName, 1, row, pair[0]); err != nil {
			f.Close()
			return nil, err
		}
		if err := setReportCell(f, sheetName, 2, row, pair[1]); err != nil {
			f.Close()
			return nil, err
		}
		row++
	}
	row++ // 空行分隔

	// 指标表头
	headerRow := row
	for col, header := range DailyExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	row++

	// 游戏、指标按字典序写出，导出内容可复现
	gameIDs := make([]string, 0, len(report.Games))
	for id := range report.Games {
		gameIDs = append(gameIDs, id)
	}
	sort.Strings(gameIDs)

	for _, id := range gameIDs {
		game := report.Games[id]
		display := domain.GameType(id).DisplayName()

		metrics := make([]string, 0, len(game.Metrics))
		for m := range game.Metrics {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)

		for _, metric := range metrics {
			change := ""
			if pct := game.Changes[metric]; pct != nil {
				change = fmt.Sprintf("%+.1f%%", *pct)
			}
			cells := []any{
				display,
				format.MetricName(metric),
				format.MetricValue(metric, game.Metrics[metric]),
				change,
			}
			for col, value := range cells {
				if err := setReportCell(f, sheetName, col+1, row, value); err != nil {
					f.Close()
					return nil, err
				}
			}
			row++
		}
	}

	columnWidths := []float64{
		22, // Game
		32, // Metric
		20, // Value
		20, // Change vs Previous
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// AllTimeExportHeader 长期趋势导出表头（每桶一行五数概括）
var AllTimeExportHeader = []string{
	"Series",
	"Period",
	"Min",
	"Q1",
	"Median",
	"Q3",
	"Max",
}

// GenerateAllTimeExport 生成长期趋势 Excel 文件，每个图表一个工作表
func GenerateAllTimeExport(charts map[string]ChartInput) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	titles := make([]string, 0, len(charts))
	for title := range charts {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	for _, title := range titles {
		if _, err := f.NewSheet(title); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", title, err)
		}

		for col, header := range AllTimeExportHeader {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(title, cell, header); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
			}
			if err := f.SetCellStyle(title, cell, cell, headerStyle); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set header style: %w", err)
			}
		}

		input := charts[title]
		boxes := BoxPlotData(input)
		series := make([]string, 0, len(boxes))
		for s := range boxes {
			series = append(series, s)
		}
		sort.Strings(series)

		row := 2
		for _, s := range series {
			display := s
			if label, ok := input.SeriesLabels[s]; ok {
				display = label
			}
			periods := make([]string, 0, len(boxes[s]))
			for p := range boxes[s] {
				periods = append(periods, p)
			}
			sort.Strings(periods)
			for _, period := range periods {
				q := boxes[s][period]
				cells := []any{display, period, q[0], q[1], q[2], q[3], q[4]}
				for col, value := range cells {
					if err := setReportCell(f, title, col+1, row, value); err != nil {
						f.Close()
						return nil, err
					}
				}
				row++
			}
		}

		for i, width := range []float64{28, 16, 12, 12, 12, 12, 12} {
			col, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert column number: %w", err)
			}
			if err := f.SetColWidth(title, col, col, width); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	if len(titles) > 0 {
		f.DeleteSheet("Sheet1")
		if index, err := f.GetSheetIndex(titles[0]); err == nil {
			f.SetActiveSheet(index)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// setReportCell 设置单元格值
func setReportCell(f *excelize.File, sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
