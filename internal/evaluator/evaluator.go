package evaluator

import (
	"time"

	"wisefido-sleep-alert/internal/metrics"
	"wisefido-sleep-alert/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Evaluator 睡眠预警规则评估器
// 只读取入参，不持有任何共享状态，可并发使用
type Evaluator struct {
	logger *zap.Logger
	newID  func() string
	now    func() time.Time
}

// Option 评估器可选项
type Option func(*Evaluator)

// WithIDGenerator 替换记录ID生成函数
func WithIDGenerator(fn func() string) Option {
	return func(e *Evaluator) { e.newID = fn }
}

// WithClock 替换触发时间来源
func WithClock(fn func() time.Time) Option {
	return func(e *Evaluator) { e.now = fn }
}

// NewEvaluator 创建评估器
func NewEvaluator(logger *zap.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		logger: logger,
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate 用启用的规则评估一天的睡眠数据，返回新的预警记录
//
// existing 中已有相同去重键的规则会被跳过，本次调用内产生的记录同样参与去重。
// 返回顺序与 rules 的输入顺序一致。
func (e *Evaluator) Evaluate(snapshot *models.SleepSnapshot, rules []models.AlertRule, existing []models.AlertRecord) []models.AlertRecord {
	if snapshot == nil {
		e.logger.Warn("Evaluate called without snapshot")
		return nil
	}

	sleepDate := snapshot.SleepDateMillis()
	seen := make(map[models.DedupKey]struct{}, len(existing))
	for i := range existing {
		seen[existing[i].DedupKey()] = struct{}{}
	}

	var records []models.AlertRecord
	for i := range rules {
		rule := &rules[i]
		if !rule.Enabled {
			continue
		}

		key := models.RuleDedupKey(rule, sleepDate)
		if _, dup := seen[key]; dup {
			continue
		}

		value := e.MetricValue(snapshot, rule)
		if !e.Matches(value, rule) {
			continue
		}

		records = append(records, e.buildRecord(rule, snapshot, value))
		seen[key] = struct{}{}
	}

	return records
}

// MetricValue 计算规则对应的指标值，未知指标类型记录警告并返回 0
func (e *Evaluator) MetricValue(snapshot *models.SleepSnapshot, rule *models.AlertRule) float64 {
	value, ok := ExtractMetric(snapshot, rule.MetricType)
	if !ok {
		e.logger.Warn("Unknown metric type, treating value as 0",
			zap.String("rule_id", rule.ID),
			zap.String("rule_name", rule.Name),
			zap.String("metric_type", string(rule.MetricType)),
		)
		metrics.UnknownEnumWarnings.WithLabelValues("metric_type").Inc()
	}
	return value
}

// Matches 判断规则条件是否成立，未知运算符记录警告并视为不成立
func (e *Evaluator) Matches(value float64, rule *models.AlertRule) bool {
	matched, ok := CompareCondition(value, rule.Operator, rule.Threshold)
	if !ok {
		e.logger.Warn("Unknown operator, condition treated as false",
			zap.String("rule_id", rule.ID),
			zap.String("rule_name", rule.Name),
			zap.String("operator", string(rule.Operator)),
		)
		metrics.UnknownEnumWarnings.WithLabelValues("operator").Inc()
	}
	return matched
}
