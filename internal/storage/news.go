package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incuhub/incuhub/internal/schema"
)

const newsSummaryColumns = "id, news_date, location, title, category, startup_id"

// ListNews 返回本地已有的全部新闻摘要。
func (s *Store) ListNews(ctx context.Context) ([]schema.NewsSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+newsSummaryColumns+" FROM news ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()

	var items []schema.NewsSummary
	for rows.Next() {
		var n schema.NewsSummary
		if err := rows.Scan(&n.ID, &n.NewsDate, &n.Location, &n.Title, &n.Category, &n.StartupID); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// GetNews 返回单条新闻详情；列表填充产生的行 description 可能为空，
// populate-once 策略下不会回源补全。
func (s *Store) GetNews(ctx context.Context, id int) (*schema.NewsDetail, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+newsSummaryColumns+", COALESCE(description, '') FROM news WHERE id = ?", id)
	var n schema.NewsDetail
	err := row.Scan(&n.ID, &n.NewsDate, &n.Location, &n.Title, &n.Category, &n.StartupID, &n.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get news: %w", err)
	}
	return &n, nil
}

// InsertNewsList 在单个事务内写入整批新闻摘要。
func (s *Store) InsertNewsList(ctx context.Context, items []schema.NewsSummary) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, n := range items {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO news ("+newsSummaryColumns+") VALUES (?, ?, ?, ?, ?, ?)",
				n.ID, n.NewsDate, n.Location, n.Title, n.Category, n.StartupID,
			); err != nil {
				return fmt.Errorf("insert news %d: %w", n.ID, err)
			}
		}
		return nil
	})
}

// InsertNewsDetail 写入单条新闻详情。
func (s *Store) InsertNewsDetail(ctx context.Context, n schema.NewsDetail) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO news ("+newsSummaryColumns+", description) VALUES (?, ?, ?, ?, ?, ?, ?)",
			n.ID, n.NewsDate, n.Location, n.Title, n.Category, n.StartupID, n.Description,
		); err != nil {
			return fmt.Errorf("insert news detail %d: %w", n.ID, err)
		}
		return nil
	})
}
