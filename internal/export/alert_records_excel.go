package export

import (
	"bytes"
	"fmt"
	"time"

	"wisefido-sleep-alert/internal/models"

	"github.com/xuri/excelize/v2"
)

const alertRecordsSheet = "Alert Records"

// AlertRecordsHeader 预警记录导出表头
var AlertRecordsHeader = []string{
	"ID",
	"Device Code",
	"Sleep Date",
	"Rule Name",
	"Metric",
	"Condition",
	"Trigger Value",
	"Level",
	"Triggered At",
	"Status",
	"Processed At",
	"Process Note",
}

var alertRecordsColumnWidths = []float64{38, 20, 14, 22, 16, 16, 14, 10, 20, 10, 20, 30}

// AlertRecordsExcel 生成预警记录 Excel，时间按 loc 格式化（nil 为 UTC）
func AlertRecordsExcel(records []models.AlertRecord, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(alertRecordsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FDE9D9"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range AlertRecordsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(alertRecordsSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(alertRecordsSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(alertRecordsSheet, name, name, alertRecordsColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range records {
		rec := &records[i]
		row := []interface{}{
			rec.ID,
			rec.DeviceCode,
			formatMillis(rec.SleepDateMillis, loc, "2006-01-02"),
			rec.RuleName,
			rec.MetricType.Label(),
			fmt.Sprintf("%s %g%s", rec.Operator, rec.Threshold, rec.MetricType.Unit()),
			rec.TriggerValue,
			rec.Severity.Label(),
			formatMillis(rec.TriggeredAtMillis, loc, "2006-01-02 15:04:05"),
			models.StatusLabels[rec.Status],
			"",
			rec.ProcessNote,
		}
		if rec.ProcessedAtMillis != nil {
			row[10] = formatMillis(*rec.ProcessedAtMillis, loc, "2006-01-02 15:04:05")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(alertRecordsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMillis(ms int64, loc *time.Location, layout string) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).In(loc).Format(layout)
}
