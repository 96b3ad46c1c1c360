package consumer

import (
	"context"

	"wisefido-sleep-alert/internal/models"
)

// SnapshotEvaluator 评估一份已解析的睡眠快照
type SnapshotEvaluator interface {
	EvaluateSnapshot(ctx context.Context, source string, snapshot *models.SleepSnapshot) (*models.EvaluationResult, error)
}

// DeviceDayEvaluator 拉取并评估设备某天的睡眠数据，date 格式 YYYY-MM-DD
type DeviceDayEvaluator interface {
	EvaluateDeviceDay(ctx context.Context, source, deviceCode, date string) (*models.EvaluationResult, error)
}
