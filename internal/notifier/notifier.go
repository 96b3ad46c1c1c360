package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"wisefido-sleep-alert/internal/metrics"
	"wisefido-sleep-alert/internal/models"

	"go.uber.org/zap"
)

// Notifier 预警记录下游通知
type Notifier interface {
	Name() string
	Notify(ctx context.Context, records []models.AlertRecord) error
}

// AlertEvent 对外发布的预警消息
type AlertEvent struct {
	Record      models.AlertRecord `json:"record"`
	MetricLabel string             `json:"metricLabel"`
	Unit        string             `json:"unit"`
	LevelLabel  string             `json:"levelLabel"`
}

// NewAlertEvent 附加展示字段
func NewAlertEvent(rec models.AlertRecord) AlertEvent {
	return AlertEvent{
		Record:      rec,
		MetricLabel: rec.MetricType.Label(),
		Unit:        rec.MetricType.Unit(),
		LevelLabel:  rec.Severity.Label(),
	}
}

func marshalEvent(rec models.AlertRecord) ([]byte, error) {
	payload, err := json.Marshal(NewAlertEvent(rec))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert event: %w", err)
	}
	return payload, nil
}

// MultiNotifier 依次通知所有通道，单个通道失败只记录日志
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMultiNotifier 创建组合通知器，nil 项被忽略
func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{logger: logger}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *MultiNotifier) Name() string { return "multi" }

// Notify 通知全部通道，返回 nil；失败计入指标
func (m *MultiNotifier) Notify(ctx context.Context, records []models.AlertRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, records); err != nil {
			metrics.NotificationsTotal.WithLabelValues(n.Name(), "error").Inc()
			m.logger.Error("Failed to notify alert records",
				zap.String("channel", n.Name()),
				zap.Int("count", len(records)),
				zap.Error(err),
			)
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(n.Name(), "ok").Inc()
	}
	return nil
}

// Len 已配置的通道数
func (m *MultiNotifier) Len() int { return len(m.notifiers) }
