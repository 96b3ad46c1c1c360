package repository

import (
	"context"
	"path/filepath"
	"testing"

	"wisefido-sleep-alert/internal/common/config"
	"wisefido-sleep-alert/internal/common/database"
	"wisefido-sleep-alert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupSQLite(t *testing.T) (*AlertRulesRepository, *AlertRecordsRepository) {
	db, err := database.NewSQLiteDB(&config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "alerts.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(context.Background(), db))
	// 重复执行不报错
	require.NoError(t, InitSchema(context.Background(), db))

	logger := zap.NewNop()
	return NewAlertRulesRepository(db, DialectSQLite, logger), NewAlertRecordsRepository(db, DialectSQLite, logger)
}

func TestSQLite_RuleLifecycle(t *testing.T) {
	rules, _ := setupSQLite(t)
	ctx := context.Background()

	for _, r := range []models.AlertRule{
		{ID: "r1", Name: "A", MetricType: models.MetricSleepQuality, Operator: models.OpLessThan, Threshold: 70, Severity: models.SeverityMedium, Enabled: true},
		{ID: "r2", Name: "B", MetricType: models.MetricSleepDuration, Operator: models.OpGreaterThan, Threshold: 540, Severity: models.SeverityLow, Enabled: false},
		{ID: "r3", Name: "C", MetricType: models.MetricTotalMovement, Operator: models.OpGreaterThan, Threshold: 60, Severity: models.SeverityHigh, Enabled: true},
	} {
		r := r
		require.NoError(t, rules.CreateRule(ctx, &r))
	}

	err := rules.CreateRule(ctx, &models.AlertRule{ID: "r4", Name: "A", MetricType: models.MetricSleepQuality,
		Operator: models.OpLessThan, Threshold: 1, Severity: models.SeverityLow})
	assert.ErrorIs(t, err, ErrDuplicateRuleName)

	all, err := rules.ListRules(ctx, RuleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"r1", "r2", "r3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	enabled := true
	active, err := rules.ListRules(ctx, RuleFilter{Enabled: &enabled})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	// 更新后位置不变
	updated := all[0]
	updated.Threshold = 65
	require.NoError(t, rules.UpdateRule(ctx, &updated))
	toggled, err := rules.ToggleRule(ctx, "r2")
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)

	all, err = rules.ListRules(ctx, RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, "r1", all[0].ID)
	assert.Equal(t, 65.0, all[0].Threshold)

	require.NoError(t, rules.DeleteRule(ctx, "r1"))
	_, err = rules.GetRule(ctx, "r1")
	assert.ErrorIs(t, err, ErrRuleNotFound)

	require.NoError(t, rules.ReplaceRules(ctx, []models.AlertRule{
		{ID: "d1", Name: "D", MetricType: models.MetricBodyMovement, Operator: models.OpGreaterThan, Threshold: 40, Severity: models.SeverityMedium, Enabled: true},
	}))
	all, err = rules.ListRules(ctx, RuleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "d1", all[0].ID)
}

func TestSQLite_RecordLedger(t *testing.T) {
	_, records := setupSQLite(t)
	ctx := context.Background()

	a := testRecord("rec-a")
	b := testRecord("rec-b") // 与 a 去重键相同
	c := testRecord("rec-c")
	c.RuleName = "睡眠质量严重不足"
	c.Threshold = 60
	c.TriggeredAtMillis++

	inserted, err := records.AppendRecords(ctx, []models.AlertRecord{a, b, c})
	require.NoError(t, err)
	require.Len(t, inserted, 2)
	assert.Equal(t, "rec-a", inserted[0].ID)
	assert.Equal(t, "rec-c", inserted[1].ID)

	// 去重键跨设备生效：其他设备同一天同规则被唯一索引拦下
	dup := testRecord("rec-x")
	dup.DeviceCode = "BCG-0002"
	inserted, err = records.AppendRecords(ctx, []models.AlertRecord{dup})
	require.NoError(t, err)
	assert.Empty(t, inserted)

	other := testRecord("rec-d")
	other.DeviceCode = "BCG-0002"
	other.RuleName = "体动过多"
	other.MetricType = models.MetricBodyMovement
	other.Operator = models.OpGreaterThan
	other.Threshold = 40
	inserted, err = records.AppendRecords(ctx, []models.AlertRecord{other})
	require.NoError(t, err)
	assert.Len(t, inserted, 1)

	day, err := records.ListDayRecords(ctx, a.SleepDateMillis)
	require.NoError(t, err)
	assert.Len(t, day, 3)

	list, err := records.ListRecords(ctx, RecordFilter{DeviceCode: "BCG-0001", Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rec-c", list[0].ID)

	note := "已电话回访"
	rec, err := records.UpdateRecordStatus(ctx, "rec-a", models.StatusProcessed, 1717300000000, &note)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessed, rec.Status)
	assert.Equal(t, note, rec.ProcessNote)
	require.NotNil(t, rec.ProcessedAtMillis)

	// 重新打开，不传备注时保留原备注
	rec, err = records.UpdateRecordStatus(ctx, "rec-a", models.StatusUnprocessed, 1717400000000, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnprocessed, rec.Status)
	assert.Equal(t, note, rec.ProcessNote)
	assert.Equal(t, int64(1717400000000), *rec.ProcessedAtMillis)

	processed := models.StatusUnprocessed
	list, err = records.ListRecords(ctx, RecordFilter{Status: &processed})
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, records.DeleteRecord(ctx, "rec-c"))
	assert.ErrorIs(t, records.DeleteRecord(ctx, "rec-c"), ErrRecordNotFound)

	n, err := records.ClearRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
