package evaluator

import (
	"wisefido-sleep-alert/internal/models"

	"github.com/google/uuid"
)

// DefaultRulesWithIDs 内置规则建议，每条分配新的 ID
func DefaultRulesWithIDs() []models.AlertRule {
	rules := DefaultRules()
	for i := range rules {
		rules[i].ID = uuid.New().String()
	}
	return rules
}

// DefaultRules 内置规则建议，用于初始化和恢复默认
// 返回新切片，ID 由调用方分配
func DefaultRules() []models.AlertRule {
	return []models.AlertRule{
		{Name: "睡眠质量过低", MetricType: models.MetricSleepQuality, Operator: models.OpLessThan, Threshold: 70, Severity: models.SeverityMedium, Enabled: true,
			Description: "睡眠质量评分低于70分时触发预警"},
		{Name: "睡眠质量严重不足", MetricType: models.MetricSleepQuality, Operator: models.OpLessThan, Threshold: 60, Severity: models.SeverityHigh, Enabled: true,
			Description: "睡眠质量评分低于60分时触发预警"},
		{Name: "呼吸率过低", MetricType: models.MetricRespiratoryRate, Operator: models.OpLessThan, Threshold: 12, Severity: models.SeverityMedium, Enabled: true,
			Description: "平均呼吸率低于12次/分钟时触发预警"},
		{Name: "呼吸率过高", MetricType: models.MetricRespiratoryRate, Operator: models.OpGreaterThan, Threshold: 20, Severity: models.SeverityMedium, Enabled: true,
			Description: "平均呼吸率高于20次/分钟时触发预警"},
		{Name: "深睡比例不足", MetricType: models.MetricDeepSleepRatio, Operator: models.OpLessThan, Threshold: 15, Severity: models.SeverityMedium, Enabled: true,
			Description: "深睡眠比例低于15%时触发预警"},
		{Name: "REM睡眠不足", MetricType: models.MetricRemSleepRatio, Operator: models.OpLessThan, Threshold: 20, Severity: models.SeverityMedium, Enabled: true,
			Description: "REM睡眠比例低于20%时触发预警"},
		{Name: "睡眠时间不足", MetricType: models.MetricSleepDuration, Operator: models.OpLessThan, Threshold: 420, Severity: models.SeverityMedium, Enabled: true,
			Description: "睡眠时长少于7小时(420分钟)时触发预警"},
		{Name: "睡眠时间过长", MetricType: models.MetricSleepDuration, Operator: models.OpGreaterThan, Threshold: 540, Severity: models.SeverityLow, Enabled: true,
			Description: "睡眠时长超过9小时(540分钟)时触发预警"},
		{Name: "体动过多", MetricType: models.MetricTotalMovement, Operator: models.OpGreaterThan, Threshold: 60, Severity: models.SeverityMedium, Enabled: true,
			Description: "体动总时长超过60分钟时触发预警，可能表示睡眠不安稳"},
		{Name: "体动严重过多", MetricType: models.MetricTotalMovement, Operator: models.OpGreaterThan, Threshold: 90, Severity: models.SeverityHigh, Enabled: true,
			Description: "体动总时长超过90分钟时触发预警，可能表示睡眠质量差"},
		{Name: "不活跃时间过长", MetricType: models.MetricTotalInactivity, Operator: models.OpGreaterThan, Threshold: 480, Severity: models.SeverityMedium, Enabled: true,
			Description: "不活跃总时长超过8小时(480分钟)时触发预警，可能表示睡眠过于沉重"},
		{Name: "体位改变频繁", MetricType: models.MetricPositionChange, Operator: models.OpGreaterThan, Threshold: 30, Severity: models.SeverityMedium, Enabled: true,
			Description: "体位改变时长超过30分钟时触发预警，可能表示睡眠不舒适"},
		{Name: "身体变动频繁", MetricType: models.MetricBodyMovement, Operator: models.OpGreaterThan, Threshold: 40, Severity: models.SeverityMedium, Enabled: true,
			Description: "身体变动时长超过40分钟时触发预警，可能表示睡眠不安稳"},
	}
}
