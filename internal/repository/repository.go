package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"wisefido-sleep-alert/internal/models"

	"github.com/lib/pq"
)

var (
	ErrRuleNotFound      = errors.New("alert rule not found")
	ErrRecordNotFound    = errors.New("alert record not found")
	ErrDuplicateRuleName = errors.New("alert rule name already exists")
)

// RuleRepository 规则存储
type RuleRepository interface {
	ListRules(ctx context.Context, filter RuleFilter) ([]models.AlertRule, error)
	GetRule(ctx context.Context, id string) (*models.AlertRule, error)
	CreateRule(ctx context.Context, rule *models.AlertRule) error
	UpdateRule(ctx context.Context, rule *models.AlertRule) error
	ToggleRule(ctx context.Context, id string) (*models.AlertRule, error)
	DeleteRule(ctx context.Context, id string) error
	ReplaceRules(ctx context.Context, rules []models.AlertRule) error
}

// RecordRepository 预警记录台账
type RecordRepository interface {
	ListRecords(ctx context.Context, filter RecordFilter) ([]models.AlertRecord, error)
	ListDayRecords(ctx context.Context, sleepDateMillis int64) ([]models.AlertRecord, error)
	GetRecord(ctx context.Context, id string) (*models.AlertRecord, error)
	AppendRecords(ctx context.Context, records []models.AlertRecord) ([]models.AlertRecord, error)
	UpdateRecordStatus(ctx context.Context, id string, status models.RecordStatus, processedAtMillis int64, note *string) (*models.AlertRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	ClearRecords(ctx context.Context) (int64, error)
}

// RuleFilter 规则查询条件，零值表示不过滤
type RuleFilter struct {
	Enabled    *bool
	MetricType models.MetricType
}

// RecordFilter 记录查询条件，零值表示不过滤
type RecordFilter struct {
	DeviceCode    string
	Status        *models.RecordStatus
	Severity      models.Severity
	FromSleepDate int64 // 毫秒，含
	ToSleepDate   int64 // 毫秒，含
	Limit         int
	Offset        int
}

// Dialect SQL 方言
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// rebind 将 $N 占位符转换为当前方言的写法
// SQLite 使用顺序 ?，因此查询中的参数必须按出现顺序编号且不重复使用
func (d Dialect) rebind(query string) string {
	if d == DialectPostgres {
		return query
	}
	return placeholderPattern.ReplaceAllString(query, "?")
}

func (d Dialect) String() string {
	if d == DialectSQLite {
		return "sqlite"
	}
	return "postgres"
}

// isUniqueViolation 唯一约束冲突
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
