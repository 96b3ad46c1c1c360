package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wisefido-sleep-alert/internal/models"

	"go.uber.org/zap"
)

const recordColumns = `id, rule_id, rule_name, severity, metric_type, operator, threshold,
	sleep_date_millis, trigger_value, triggered_at_millis, device_code, status,
	processed_at_millis, process_note`

// AlertRecordsRepository 预警记录仓库（sleep_alert_records 表）
type AlertRecordsRepository struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewAlertRecordsRepository 创建记录仓库
func NewAlertRecordsRepository(db *sql.DB, dialect Dialect, logger *zap.Logger) *AlertRecordsRepository {
	return &AlertRecordsRepository{db: db, dialect: dialect, logger: logger}
}

// ListRecords 按触发时间倒序查询记录
func (r *AlertRecordsRepository) ListRecords(ctx context.Context, filter RecordFilter) ([]models.AlertRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM sleep_alert_records WHERE 1=1`
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}

	if filter.DeviceCode != "" {
		add("device_code = $%d", filter.DeviceCode)
	}
	if filter.Status != nil {
		add("status = $%d", int(*filter.Status))
	}
	if filter.Severity != "" {
		add("severity = $%d", string(filter.Severity))
	}
	if filter.FromSleepDate > 0 {
		add("sleep_date_millis >= $%d", filter.FromSleepDate)
	}
	if filter.ToSleepDate > 0 {
		add("sleep_date_millis <= $%d", filter.ToSleepDate)
	}
	query += " ORDER BY triggered_at_millis DESC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += fmt.Sprintf(" OFFSET $%d", len(args))
		}
	}

	return r.queryRecords(ctx, query, args...)
}

// ListDayRecords 查询某睡眠日期的全部记录，所有设备（评估去重输入）
func (r *AlertRecordsRepository) ListDayRecords(ctx context.Context, sleepDateMillis int64) ([]models.AlertRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM sleep_alert_records
		WHERE sleep_date_millis = $1
		ORDER BY triggered_at_millis ASC, id ASC`
	return r.queryRecords(ctx, query, sleepDateMillis)
}

// GetRecord 根据ID获取记录
func (r *AlertRecordsRepository) GetRecord(ctx context.Context, id string) (*models.AlertRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM sleep_alert_records WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, r.dialect.rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("failed to get alert record: %w", err)
	}
	return rec, nil
}

// AppendRecords 在单个事务中追加记录，违反去重唯一索引的记录被跳过
// 返回实际写入的记录
func (r *AlertRecordsRepository) AppendRecords(ctx context.Context, records []models.AlertRecord) ([]models.AlertRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.dialect.rebind(`
		INSERT INTO sleep_alert_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT DO NOTHING
	`)

	inserted := make([]models.AlertRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		var processedAt sql.NullInt64
		if rec.ProcessedAtMillis != nil {
			processedAt = sql.NullInt64{Int64: *rec.ProcessedAtMillis, Valid: true}
		}
		res, err := tx.ExecContext(ctx, query,
			rec.ID, rec.RuleID, rec.RuleName, string(rec.Severity), string(rec.MetricType),
			string(rec.Operator), rec.Threshold, rec.SleepDateMillis, rec.TriggerValue,
			rec.TriggeredAtMillis, rec.DeviceCode, int(rec.Status), processedAt, rec.ProcessNote,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert alert record %s: %w", rec.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			r.logger.Warn("Duplicate alert record skipped",
				zap.String("device_code", rec.DeviceCode),
				zap.Int64("sleep_date", rec.SleepDateMillis),
				zap.String("rule_name", rec.RuleName),
			)
			continue
		}
		inserted = append(inserted, *rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit alert records: %w", err)
	}
	return inserted, nil
}

// UpdateRecordStatus 更新处理状态与处理时间；note 为 nil 时保留原备注
func (r *AlertRecordsRepository) UpdateRecordStatus(ctx context.Context, id string, status models.RecordStatus, processedAtMillis int64, note *string) (*models.AlertRecord, error) {
	query := `
		UPDATE sleep_alert_records
		SET status = $1, processed_at_millis = $2, process_note = COALESCE($3, process_note)
		WHERE id = $4
	`
	var noteArg sql.NullString
	if note != nil {
		noteArg = sql.NullString{String: *note, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(query), int(status), processedAtMillis, noteArg, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update alert record status: %w", err)
	}
	if err := expectOneRow(res, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id)); err != nil {
		return nil, err
	}
	return r.GetRecord(ctx, id)
}

// DeleteRecord 删除单条记录
func (r *AlertRecordsRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM sleep_alert_records WHERE id = $1`), id)
	if err != nil {
		return fmt.Errorf("failed to delete alert record: %w", err)
	}
	return expectOneRow(res, fmt.Errorf("%w: id=%s", ErrRecordNotFound, id))
}

// ClearRecords 清空全部记录，返回删除条数
func (r *AlertRecordsRepository) ClearRecords(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sleep_alert_records`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear alert records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	r.logger.Info("Alert records cleared", zap.Int64("count", n))
	return n, nil
}

func (r *AlertRecordsRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]models.AlertRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert records: %w", err)
	}
	defer rows.Close()

	records := []models.AlertRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert records: %w", err)
	}
	return records, nil
}

func scanRecord(row rowScanner) (*models.AlertRecord, error) {
	var rec models.AlertRecord
	var severity, metricType, operator string
	var status int
	var processedAt sql.NullInt64
	if err := row.Scan(
		&rec.ID, &rec.RuleID, &rec.RuleName, &severity, &metricType, &operator, &rec.Threshold,
		&rec.SleepDateMillis, &rec.TriggerValue, &rec.TriggeredAtMillis, &rec.DeviceCode, &status,
		&processedAt, &rec.ProcessNote,
	); err != nil {
		return nil, err
	}
	rec.Severity = models.Severity(severity)
	rec.MetricType = models.MetricType(metricType)
	rec.Operator = models.Operator(operator)
	rec.Status = models.RecordStatus(status)
	if processedAt.Valid {
		v := processedAt.Int64
		rec.ProcessedAtMillis = &v
	}
	return &rec, nil
}
