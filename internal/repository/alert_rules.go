package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wisefido-sleep-alert/internal/models"

	"go.uber.org/zap"
)

const ruleColumns = `id, name, metric_type, operator, threshold, severity, enabled, description`

// AlertRulesRepository 预警规则仓库（sleep_alert_rules 表）
// 规则按 position 保持用户创建顺序，评估输出顺序依赖于此
type AlertRulesRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewAlertRulesRepository 创建规则仓库
func NewAlertRulesRepository(db *sql.DB, dialect Dialect, logger *zap.Logger) *AlertRulesRepository {
	return &AlertRulesRepository{db: db, dialect: dialect, logger: logger}
}

// ListRules 按创建顺序列出规则
func (r *AlertRulesRepository) ListRules(ctx context.Context, filter RuleFilter) ([]models.AlertRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM sleep_alert_rules WHERE 1=1`
	var args []interface{}
	if filter.Enabled != nil {
		args = append(args, *filter.Enabled)
		query += fmt.Sprintf(" AND enabled = $%d", len(args))
	}
	if filter.MetricType != "" {
		args = append(args, string(filter.MetricType))
		query += fmt.Sprintf(" AND metric_type = $%d", len(args))
	}
	query += " ORDER BY position ASC"

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	defer rows.Close()

	rules := []models.AlertRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert rules: %w", err)
	}
	return rules, nil
}

// GetRule 根据ID获取规则
func (r *AlertRulesRepository) GetRule(ctx context.Context, id string) (*models.AlertRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM sleep_alert_rules WHERE id = $1`
	rule, err := scanRule(r.db.QueryRowContext(ctx, r.dialect.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get alert rule: %w", err)
	}
	return rule, nil
}

// CreateRule 追加规则到列表末尾
func (r *AlertRulesRepository) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	query := `
		INSERT INTO sleep_alert_rules (` + ruleColumns + `, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM sleep_alert_rules))
	`
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(query), ruleArgs(rule)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateRuleName, rule.Name)
		}
		return fmt.Errorf("failed to create alert rule: %w", err)
	}
	return nil
}

// UpdateRule 原位替换规则内容，位置不变
func (r *AlertRulesRepository) UpdateRule(ctx context.Context, rule *models.AlertRule) error {
	query := `
		UPDATE sleep_alert_rules
		SET name = $1, metric_type = $2, operator = $3, threshold = $4,
			severity = $5, enabled = $6, description = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(query),
		rule.Name, string(rule.MetricType), string(rule.Operator), rule.Threshold,
		string(rule.Severity), rule.Enabled, rule.Description, rule.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateRuleName, rule.Name)
		}
		return fmt.Errorf("failed to update alert rule: %w", err)
	}
	return expectOneRow(res, fmt.Errorf("%w: id=%s", ErrRuleNotFound, rule.ID))
}

// ToggleRule 翻转启用状态并返回最新规则
func (r *AlertRulesRepository) ToggleRule(ctx context.Context, id string) (*models.AlertRule, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`UPDATE sleep_alert_rules SET enabled = NOT enabled WHERE id = $1`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle alert rule: %w", err)
	}
	if err := expectOneRow(res, fmt.Errorf("%w: id=%s", ErrRuleNotFound, id)); err != nil {
		return nil, err
	}
	return r.GetRule(ctx, id)
}

// DeleteRule 删除规则，已产生的记录保留
func (r *AlertRulesRepository) DeleteRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM sleep_alert_rules WHERE id = $1`), id)
	if err != nil {
		return fmt.Errorf("failed to delete alert rule: %w", err)
	}
	return expectOneRow(res, fmt.Errorf("%w: id=%s", ErrRuleNotFound, id))
}

// ReplaceRules 事务内清空并按顺序写入整组规则
func (r *AlertRulesRepository) ReplaceRules(ctx context.Context, rules []models.AlertRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sleep_alert_rules`); err != nil {
		return fmt.Errorf("failed to clear alert rules: %w", err)
	}

	query := r.dialect.rebind(`INSERT INTO sleep_alert_rules (` + ruleColumns + `, position) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	for i := range rules {
		args := append(ruleArgs(&rules[i]), i+1)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateRuleName, rules[i].Name)
			}
			return fmt.Errorf("failed to insert alert rule %s: %w", rules[i].Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit alert rules: %w", err)
	}

	r.logger.Info("Alert rules replaced", zap.Int("count", len(rules)))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner) (*models.AlertRule, error) {
	var rule models.AlertRule
	var metricType, operator, severity string
	if err := row.Scan(&rule.ID, &rule.Name, &metricType, &operator, &rule.Threshold,
		&severity, &rule.Enabled, &rule.Description); err != nil {
		return nil, err
	}
	rule.MetricType = models.MetricType(metricType)
	rule.Operator = models.Operator(operator)
	rule.Severity = models.Severity(severity)
	return &rule, nil
}

func ruleArgs(rule *models.AlertRule) []interface{} {
	return []interface{}{
		rule.ID, rule.Name, string(rule.MetricType), string(rule.Operator), rule.Threshold,
		string(rule.Severity), rule.Enabled, rule.Description,
	}
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
