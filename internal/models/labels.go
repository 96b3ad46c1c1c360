package models

// MetricLabels 指标中文名称
var MetricLabels = map[MetricType]string{
	MetricSleepQuality:    "睡眠质量",
	MetricRespiratoryRate: "平均呼吸率",
	MetricDeepSleepRatio:  "深睡比例",
	MetricRemSleepRatio:   "REM睡眠比例",
	MetricSleepDuration:   "睡眠时长",
	MetricTotalMovement:   "体动总时长",
	MetricTotalInactivity: "不活跃总时长",
	MetricPositionChange:  "体位改变时长",
	MetricBodyMovement:    "身体变动时长",
}

// MetricUnits 指标单位
var MetricUnits = map[MetricType]string{
	MetricSleepQuality:    "分",
	MetricRespiratoryRate: "次/分钟",
	MetricDeepSleepRatio:  "%",
	MetricRemSleepRatio:   "%",
	MetricSleepDuration:   "分钟",
	MetricTotalMovement:   "分钟",
	MetricTotalInactivity: "分钟",
	MetricPositionChange:  "分钟",
	MetricBodyMovement:    "分钟",
}

// SeverityLabels 预警级别中文名称
var SeverityLabels = map[Severity]string{
	SeverityLow:    "低",
	SeverityMedium: "中",
	SeverityHigh:   "高",
	SeverityUrgent: "紧急",
}

// StatusLabels 处理状态中文名称
var StatusLabels = map[RecordStatus]string{
	StatusUnprocessed: "未处理",
	StatusProcessed:   "已处理",
	StatusIgnored:     "已忽略",
}

// Label 返回指标名称，未知类型返回原值
func (m MetricType) Label() string {
	if l, ok := MetricLabels[m]; ok {
		return l
	}
	return string(m)
}

// Unit 返回指标单位
func (m MetricType) Unit() string {
	return MetricUnits[m]
}

// Label 返回级别名称
func (s Severity) Label() string {
	if l, ok := SeverityLabels[s]; ok {
		return l
	}
	return string(s)
}
