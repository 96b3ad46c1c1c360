package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MetricType 预警规则指标类型
type MetricType string

const (
	MetricSleepQuality    MetricType = "sleep_quality"
	MetricRespiratoryRate MetricType = "respiratory_rate"
	MetricDeepSleepRatio  MetricType = "deep_sleep_ratio"
	MetricRemSleepRatio   MetricType = "rem_sleep_ratio"
	MetricSleepDuration   MetricType = "sleep_duration"
	MetricTotalMovement   MetricType = "total_movement"
	MetricTotalInactivity MetricType = "total_inactivity"
	MetricPositionChange  MetricType = "position_change"
	MetricBodyMovement    MetricType = "body_movement"
)

// AllMetricTypes 全部指标类型，顺序即展示顺序
var AllMetricTypes = []MetricType{
	MetricSleepQuality,
	MetricRespiratoryRate,
	MetricDeepSleepRatio,
	MetricRemSleepRatio,
	MetricSleepDuration,
	MetricTotalMovement,
	MetricTotalInactivity,
	MetricPositionChange,
	MetricBodyMovement,
}

// Valid 是否为已知指标类型
func (m MetricType) Valid() bool {
	for _, t := range AllMetricTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Operator 比较运算符
type Operator string

const (
	OpGreaterThan        Operator = ">"
	OpLessThan           Operator = "<"
	OpEqual              Operator = "="
	OpGreaterThanOrEqual Operator = ">="
	OpLessThanOrEqual    Operator = "<="
	OpNotEqual           Operator = "!="
)

// AllOperators 全部运算符
var AllOperators = []Operator{
	OpGreaterThan, OpLessThan, OpEqual, OpGreaterThanOrEqual, OpLessThanOrEqual, OpNotEqual,
}

// Valid 是否为已知运算符
func (o Operator) Valid() bool {
	for _, op := range AllOperators {
		if op == o {
			return true
		}
	}
	return false
}

// Severity 预警级别
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
	SeverityUrgent Severity = "urgent"
)

// AllSeverities 全部预警级别（由低到高）
var AllSeverities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityUrgent}

// Valid 是否为已知级别
func (s Severity) Valid() bool {
	for _, v := range AllSeverities {
		if v == s {
			return true
		}
	}
	return false
}

// ErrInvalidRule 规则字段不合法
var ErrInvalidRule = errors.New("invalid alert rule")

// AlertRule 预警规则（对应 sleep_alert_rules 表）
type AlertRule struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	MetricType  MetricType `json:"type" db:"metric_type"`
	Operator    Operator   `json:"operator" db:"operator"`
	Threshold   float64    `json:"threshold" db:"threshold"`
	Severity    Severity   `json:"level" db:"severity"`
	Enabled     bool       `json:"enabled" db:"enabled"`
	Description string     `json:"description,omitempty" db:"description"`
}

// Validate 规则管理入口的严格校验，未知枚举值直接拒绝
func (r *AlertRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if !r.MetricType.Valid() {
		return fmt.Errorf("%w: unknown metric type %q", ErrInvalidRule, r.MetricType)
	}
	if !r.Operator.Valid() {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidRule, r.Operator)
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidRule, r.Severity)
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return fmt.Errorf("%w: threshold must be a finite number", ErrInvalidRule)
	}
	return nil
}
