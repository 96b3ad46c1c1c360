package export

import (
	"bytes"
	"testing"
	"time"

	"wisefido-sleep-alert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAlertRecordsExcel(t *testing.T) {
	processed := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC).UnixMilli()
	records := []models.AlertRecord{
		{
			ID:                "rec-1",
			RuleName:          "睡眠质量过低",
			Severity:          models.SeverityMedium,
			MetricType:        models.MetricSleepQuality,
			Operator:          models.OpLessThan,
			Threshold:         70,
			SleepDateMillis:   time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).UnixMilli(),
			TriggerValue:      55,
			TriggeredAtMillis: time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC).UnixMilli(),
			DeviceCode:        "DEV001",
			Status:            models.StatusProcessed,
			ProcessedAtMillis: &processed,
			ProcessNote:       "已电话回访",
		},
		{
			ID:         "rec-2",
			RuleName:   "体动过多",
			Severity:   models.SeverityHigh,
			MetricType: models.MetricTotalMovement,
			Operator:   models.OpGreaterThan,
			Threshold:  60,
			DeviceCode: "DEV002",
		},
	}

	data, err := AlertRecordsExcel(records, time.UTC)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{alertRecordsSheet}, f.GetSheetList())

	rows, err := f.GetRows(alertRecordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, AlertRecordsHeader, rows[0])

	first := rows[1]
	assert.Equal(t, "rec-1", first[0])
	assert.Equal(t, "DEV001", first[1])
	assert.Equal(t, "2024-03-01", first[2])
	assert.Equal(t, "睡眠质量", first[4])
	assert.Equal(t, "< 70分", first[5])
	assert.Equal(t, "55", first[6])
	assert.Equal(t, "中", first[7])
	assert.Equal(t, "2024-03-01 08:05:00", first[8])
	assert.Equal(t, "已处理", first[9])
	assert.Equal(t, "2024-03-02 09:30:00", first[10])
	assert.Equal(t, "已电话回访", first[11])

	second := rows[2]
	assert.Equal(t, "rec-2", second[0])
	assert.Equal(t, "", second[2])
	assert.Equal(t, "未处理", second[9])
}

func TestAlertRecordsExcel_Empty(t *testing.T) {
	data, err := AlertRecordsExcel(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(alertRecordsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
