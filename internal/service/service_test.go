package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"wisefido-sleep-alert/internal/common/config"
	"wisefido-sleep-alert/internal/common/database"
	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func setupRepos(t *testing.T) (*repository.AlertRulesRepository, *repository.AlertRecordsRepository) {
	t.Helper()
	db, err := database.NewSQLiteDB(&config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "alerts.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.InitSchema(context.Background(), db))

	logger := testLogger()
	return repository.NewAlertRulesRepository(db, repository.DialectSQLite, logger),
		repository.NewAlertRecordsRepository(db, repository.DialectSQLite, logger)
}

func testSnapshot() *models.SleepSnapshot {
	return &models.SleepSnapshot{
		DeviceCode:      "BCG-0001",
		Timestamp:       1717171200,
		QualityScore:    55,
		RespiratoryRate: models.RespiratoryRate{AverageBpm: 13.5},
		SleepSummary: models.SleepSummary{
			DeepSleepMinutes:          40,
			RemSleepMinutes:           100,
			TotalSleepDurationMinutes: 400,
		},
		Movement: models.Movement{
			TotalInactivityMinutes: 350,
			TotalMovementMinutes:   70,
		},
	}
}

func seedRules(t *testing.T, repo repository.RuleRepository) {
	t.Helper()
	for _, r := range []models.AlertRule{
		{ID: "r-quality", Name: "睡眠质量过低", MetricType: models.MetricSleepQuality, Operator: models.OpLessThan, Threshold: 70, Severity: models.SeverityMedium, Enabled: true},
		{ID: "r-movement", Name: "体动过多", MetricType: models.MetricTotalMovement, Operator: models.OpGreaterThan, Threshold: 60, Severity: models.SeverityHigh, Enabled: true},
		{ID: "r-duration", Name: "睡眠时间不足", MetricType: models.MetricSleepDuration, Operator: models.OpLessThan, Threshold: 420, Severity: models.SeverityMedium, Enabled: false},
		{ID: "r-resp", Name: "呼吸率过高", MetricType: models.MetricRespiratoryRate, Operator: models.OpGreaterThan, Threshold: 20, Severity: models.SeverityMedium, Enabled: true},
	} {
		r := r
		require.NoError(t, repo.CreateRule(context.Background(), &r))
	}
}

// recordingNotifier 记录收到的通知
type recordingNotifier struct {
	mu      sync.Mutex
	calls   int
	records []models.AlertRecord
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Notify(ctx context.Context, records []models.AlertRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.records = append(n.records, records...)
	return nil
}

func (n *recordingNotifier) snapshot() (int, []models.AlertRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, append([]models.AlertRecord(nil), n.records...)
}
