package service

import (
	"context"
	"fmt"
	"time"

	"wisefido-sleep-alert/internal/evaluator"
	"wisefido-sleep-alert/internal/lock"
	"wisefido-sleep-alert/internal/metrics"
	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/notifier"
	"wisefido-sleep-alert/internal/repository"

	"go.uber.org/zap"
)

// 评估来源（指标标签）
const (
	SourceHTTP   = "http"
	SourceStream = "stream"
	SourceMQTT   = "mqtt"
)

// SnapshotFetcher 按设备和日期获取睡眠快照
type SnapshotFetcher interface {
	GetDailySnapshot(ctx context.Context, deviceCode, date string) (*models.SleepSnapshot, error)
}

// EvaluationService 评估流水线：加锁 → 读规则和当日记录 → 评估 → 追加 → 通知
type EvaluationService struct {
	rules     repository.RuleRepository
	records   repository.RecordRepository
	locker    lock.DayLocker
	evaluator *evaluator.Evaluator
	notifier  notifier.Notifier
	fetcher   SnapshotFetcher
	logger    *zap.Logger
}

// NewEvaluationService 创建评估服务
func NewEvaluationService(
	rules repository.RuleRepository,
	records repository.RecordRepository,
	locker lock.DayLocker,
	eval *evaluator.Evaluator,
	n notifier.Notifier,
	fetcher SnapshotFetcher,
	logger *zap.Logger,
) *EvaluationService {
	return &EvaluationService{
		rules:     rules,
		records:   records,
		locker:    locker,
		evaluator: eval,
		notifier:  n,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// EvaluateSnapshot 评估一份快照并持久化新记录
func (s *EvaluationService) EvaluateSnapshot(ctx context.Context, source string, snapshot *models.SleepSnapshot) (*models.EvaluationResult, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: snapshot is required", models.ErrInvalidSnapshot)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := s.evaluateLocked(ctx, snapshot)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues(source, "error").Inc()
		s.logger.Error("Failed to evaluate sleep snapshot",
			zap.String("source", source),
			zap.String("device_code", snapshot.DeviceCode),
			zap.Int64("sleep_date", snapshot.SleepDateMillis()),
			zap.Error(err),
		)
		return nil, err
	}

	if len(result.Records) > 0 {
		metrics.EvaluationsTotal.WithLabelValues(source, "fired").Inc()
		for _, rec := range result.Records {
			metrics.RecordsCreatedTotal.WithLabelValues(string(rec.Severity), string(rec.MetricType)).Inc()
		}
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, result.Records); err != nil {
				s.logger.Error("Failed to notify alert records", zap.Error(err))
			}
		}
	} else {
		metrics.EvaluationsTotal.WithLabelValues(source, "quiet").Inc()
	}

	s.logger.Info("Sleep snapshot evaluated",
		zap.String("source", source),
		zap.String("device_code", result.DeviceCode),
		zap.Int64("sleep_date", result.SleepDateMillis),
		zap.Int("rules", result.RulesEvaluated),
		zap.Int("new_records", len(result.Records)),
		zap.Int("duplicates_skipped", result.DuplicatesSkipped),
	)
	return result, nil
}

func (s *EvaluationService) evaluateLocked(ctx context.Context, snapshot *models.SleepSnapshot) (*models.EvaluationResult, error) {
	sleepDate := snapshot.SleepDateMillis()

	unlock, err := s.locker.Lock(ctx, sleepDate)
	if err != nil {
		return nil, fmt.Errorf("failed to lock sleep day: %w", err)
	}
	defer unlock()

	enabled := true
	rules, err := s.rules.ListRules(ctx, repository.RuleFilter{Enabled: &enabled})
	if err != nil {
		return nil, err
	}

	existing, err := s.records.ListDayRecords(ctx, sleepDate)
	if err != nil {
		return nil, err
	}

	created := s.evaluator.Evaluate(snapshot, rules, existing)

	inserted, err := s.records.AppendRecords(ctx, created)
	if err != nil {
		return nil, err
	}
	skipped := len(created) - len(inserted)
	if skipped > 0 {
		metrics.DuplicateRecordsSkipped.Add(float64(skipped))
	}
	if inserted == nil {
		inserted = []models.AlertRecord{}
	}

	return &models.EvaluationResult{
		DeviceCode:        snapshot.DeviceCode,
		SleepDateMillis:   sleepDate,
		RulesEvaluated:    len(rules),
		Records:           inserted,
		DuplicatesSkipped: skipped,
	}, nil
}

// EvaluateDeviceDay 从数据接口拉取设备某天的快照后评估，date 格式 YYYY-MM-DD
func (s *EvaluationService) EvaluateDeviceDay(ctx context.Context, source, deviceCode, date string) (*models.EvaluationResult, error) {
	if deviceCode == "" {
		return nil, fmt.Errorf("%w: device code is required", models.ErrInvalidSnapshot)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", models.ErrInvalidSnapshot, date)
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("sleep data client is not configured")
	}

	snapshot, err := s.fetcher.GetDailySnapshot(ctx, deviceCode, date)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("failed to fetch daily snapshot: %w", err)
	}
	return s.EvaluateSnapshot(ctx, source, snapshot)
}
