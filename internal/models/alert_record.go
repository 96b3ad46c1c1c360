package models

// RecordStatus 预警记录处理状态
type RecordStatus int

const (
	StatusUnprocessed RecordStatus = 0
	StatusProcessed   RecordStatus = 1
	StatusIgnored     RecordStatus = 2
)

// Valid 状态之间可任意转换，只校验取值
func (s RecordStatus) Valid() bool {
	return s == StatusUnprocessed || s == StatusProcessed || s == StatusIgnored
}

func (s RecordStatus) String() string {
	switch s {
	case StatusUnprocessed:
		return "unprocessed"
	case StatusProcessed:
		return "processed"
	case StatusIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// AlertRecord 预警记录（对应 sleep_alert_records 表）
// 规则字段在触发时复制，之后修改规则不影响已有记录
type AlertRecord struct {
	ID                string       `json:"id" db:"id"`
	RuleID            string       `json:"ruleId" db:"rule_id"`
	RuleName          string       `json:"ruleName" db:"rule_name"`
	Severity          Severity     `json:"level" db:"severity"`
	MetricType        MetricType   `json:"type" db:"metric_type"`
	Operator          Operator     `json:"operator" db:"operator"`
	Threshold         float64      `json:"threshold" db:"threshold"`
	SleepDateMillis   int64        `json:"sleepDate" db:"sleep_date_millis"`
	TriggerValue      float64      `json:"triggerValue" db:"trigger_value"`
	TriggeredAtMillis int64        `json:"triggeredAt" db:"triggered_at_millis"`
	DeviceCode        string       `json:"deviceCode" db:"device_code"`
	Status            RecordStatus `json:"status" db:"status"`
	ProcessedAtMillis *int64       `json:"processedAt,omitempty" db:"processed_at_millis"`
	ProcessNote       string       `json:"processNote,omitempty" db:"process_note"`
}

// DedupKey 去重键：同一键在台账中最多一条记录
type DedupKey struct {
	SleepDateMillis int64
	RuleName        string
	MetricType      MetricType
	Operator        Operator
	Threshold       float64
	Severity        Severity
}

// DedupKey 记录的去重键
func (r *AlertRecord) DedupKey() DedupKey {
	return DedupKey{
		SleepDateMillis: r.SleepDateMillis,
		RuleName:        r.RuleName,
		MetricType:      r.MetricType,
		Operator:        r.Operator,
		Threshold:       r.Threshold,
		Severity:        r.Severity,
	}
}

// RuleDedupKey 规则在某个睡眠日期下的去重键
func RuleDedupKey(rule *AlertRule, sleepDateMillis int64) DedupKey {
	return DedupKey{
		SleepDateMillis: sleepDateMillis,
		RuleName:        rule.Name,
		MetricType:      rule.MetricType,
		Operator:        rule.Operator,
		Threshold:       rule.Threshold,
		Severity:        rule.Severity,
	}
}
