package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// 两种方言共用的建表语句
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sleep_alert_rules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		operator TEXT NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		severity TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		description TEXT NOT NULL DEFAULT '',
		position BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_sleep_alert_rules_name ON sleep_alert_rules (name)`,
	`CREATE TABLE IF NOT EXISTS sleep_alert_records (
		id TEXT PRIMARY KEY,
		rule_id TEXT NOT NULL,
		rule_name TEXT NOT NULL,
		severity TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		operator TEXT NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		sleep_date_millis BIGINT NOT NULL,
		trigger_value DOUBLE PRECISION NOT NULL,
		triggered_at_millis BIGINT NOT NULL,
		device_code TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 0,
		processed_at_millis BIGINT,
		process_note TEXT NOT NULL DEFAULT ''
	)`,
	// 旧版本的去重索引带 device_code
	`DROP INDEX IF EXISTS uq_sleep_alert_records_dedup`,
	// 去重键在整个账本内唯一，不区分设备
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_sleep_alert_records_day_dedup ON sleep_alert_records
		(sleep_date_millis, rule_name, metric_type, operator, threshold, severity)`,
	`CREATE INDEX IF NOT EXISTS idx_sleep_alert_records_triggered ON sleep_alert_records (triggered_at_millis)`,
}

// InitSchema 确保表和索引存在
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
