package evaluator

import (
	"wisefido-sleep-alert/internal/models"
)

// buildRecord 构建预警记录，规则字段按当前值复制
func (e *Evaluator) buildRecord(rule *models.AlertRule, snapshot *models.SleepSnapshot, value float64) models.AlertRecord {
	return models.AlertRecord{
		ID:                e.newID(),
		RuleID:            rule.ID,
		RuleName:          rule.Name,
		Severity:          rule.Severity,
		MetricType:        rule.MetricType,
		Operator:          rule.Operator,
		Threshold:         rule.Threshold,
		SleepDateMillis:   snapshot.SleepDateMillis(),
		TriggerValue:      value,
		TriggeredAtMillis: e.now().UnixMilli(),
		DeviceCode:        snapshot.DeviceCode,
		Status:            models.StatusUnprocessed,
	}
}
