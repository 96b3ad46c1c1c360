package evaluator

import "wisefido-sleep-alert/internal/models"

// metricExtractor 从睡眠数据中提取单个数值
type metricExtractor func(s *models.SleepSnapshot) float64

// metricExtractors 每种指标类型的提取公式
var metricExtractors = map[models.MetricType]metricExtractor{
	models.MetricSleepQuality: func(s *models.SleepSnapshot) float64 {
		return s.QualityScore
	},
	models.MetricRespiratoryRate: func(s *models.SleepSnapshot) float64 {
		return s.RespiratoryRate.AverageBpm
	},
	models.MetricDeepSleepRatio: func(s *models.SleepSnapshot) float64 {
		return percentOf(s.SleepSummary.DeepSleepMinutes, s.SleepSummary.TotalSleepDurationMinutes)
	},
	models.MetricRemSleepRatio: func(s *models.SleepSnapshot) float64 {
		return percentOf(s.SleepSummary.RemSleepMinutes, s.SleepSummary.TotalSleepDurationMinutes)
	},
	models.MetricSleepDuration: func(s *models.SleepSnapshot) float64 {
		return s.SleepSummary.TotalSleepDurationMinutes
	},
	models.MetricTotalMovement: func(s *models.SleepSnapshot) float64 {
		return s.Movement.TotalMovementMinutes
	},
	models.MetricTotalInactivity: func(s *models.SleepSnapshot) float64 {
		return s.Movement.TotalInactivityMinutes
	},
	models.MetricPositionChange: func(s *models.SleepSnapshot) float64 {
		return s.Movement.Duration(models.MovementTypePositionChange)
	},
	models.MetricBodyMovement: func(s *models.SleepSnapshot) float64 {
		return s.Movement.Duration(models.MovementTypeBodyMovement)
	},
}

// ExtractMetric 计算指标值；未知指标类型返回 (0, false)
func ExtractMetric(s *models.SleepSnapshot, metricType models.MetricType) (float64, bool) {
	extract, ok := metricExtractors[metricType]
	if !ok {
		return 0, false
	}
	return extract(s), true
}

// percentOf part/total*100，total 为 0 时返回 0
func percentOf(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}
