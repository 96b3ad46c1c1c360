package models

// EvaluationResult 单次快照评估结果
type EvaluationResult struct {
	DeviceCode      string        `json:"deviceCode"`
	SleepDateMillis int64         `json:"sleepDate"`
	RulesEvaluated  int           `json:"rulesEvaluated"`
	Records         []AlertRecord `json:"records"`
	// 评估产生但被台账唯一约束拦下的记录数
	DuplicatesSkipped int `json:"duplicatesSkipped"`
}
