package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"wisefido-sleep-alert/internal/common/config"

	_ "modernc.org/sqlite"
)

// NewSQLiteDB 打开嵌入式 SQLite 数据库（单连接，开启外键与 WAL）
func NewSQLiteDB(cfg *config.SQLiteConfig) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// modernc 驱动下多连接写入会互相锁住
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return db, nil
}
