// Package storage persists mirrored incubator records and locally-owned
// entities in SQLite. One table per resource kind, columns matching the
// public schema plus the upstream id as primary key; reads scan straight
// back into schema types.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound 表示按自然键查询不到记录。
var ErrNotFound = errors.New("record not found")

// ErrDuplicate 表示唯一约束拒绝了本次写入（如重复点赞）。
var ErrDuplicate = errors.New("record already exists")

// Store 持有 SQLite 句柄，进程内共享一份实例。
type Store struct {
	db *sql.DB
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	dates TEXT,
	location TEXT,
	description TEXT,
	event_type TEXT,
	target_audience TEXT
);
CREATE TABLE IF NOT EXISTS investors (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	legal_status TEXT,
	address TEXT,
	email TEXT NOT NULL,
	phone TEXT,
	created_at TEXT,
	description TEXT,
	investor_type TEXT,
	investment_focus TEXT
);
CREATE TABLE IF NOT EXISTS news (
	id INTEGER PRIMARY KEY,
	news_date TEXT,
	location TEXT,
	title TEXT,
	category TEXT,
	startup_id INTEGER,
	description TEXT
);
CREATE TABLE IF NOT EXISTS partners (
	id INTEGER PRIMARY KEY,
	name TEXT,
	legal_status TEXT,
	address TEXT,
	email TEXT NOT NULL,
	phone TEXT,
	created_at TEXT,
	description TEXT NOT NULL,
	partnership_type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS startups (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	legal_status TEXT,
	address TEXT,
	email TEXT NOT NULL,
	phone TEXT,
	sector TEXT,
	maturity TEXT,
	created_at TEXT,
	description TEXT,
	website_url TEXT,
	social_media_url TEXT,
	project_status TEXT,
	needs TEXT
);
CREATE TABLE IF NOT EXISTS founders (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	startup_id INTEGER NOT NULL REFERENCES startups(id) ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	founder_id INTEGER,
	investor_id INTEGER
);
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	logo TEXT,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	worth INTEGER NOT NULL DEFAULT 0,
	startup_id INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_likes (
	user_id INTEGER NOT NULL,
	project_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, project_id)
);
`

// Open 打开（必要时创建）SQLite 数据库并初始化表结构。
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close 关闭底层句柄。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withTx 在单个事务内执行 fn，出错回滚，成功整体提交一次。
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
