package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incuhub/incuhub/internal/schema"
)

const eventColumns = "id, name, dates, location, description, event_type, target_audience"

func scanEvent(row interface{ Scan(...any) error }) (schema.Event, error) {
	var e schema.Event
	err := row.Scan(&e.ID, &e.Name, &e.Dates, &e.Location, &e.Description, &e.EventType, &e.TargetAudience)
	return e, err
}

// ListEvents 返回本地已有的全部活动记录。
func (s *Store) ListEvents(ctx context.Context) ([]schema.Event, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+eventColumns+" FROM events ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []schema.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent 按上游 id 查询单条活动，缺失时返回 ErrNotFound。
func (s *Store) GetEvent(ctx context.Context, id int) (*schema.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// InsertEvents 在单个事务内写入整批活动记录。
// INSERT OR IGNORE 让并发首次填充在主键冲突时保持幂等。
func (s *Store) InsertEvents(ctx context.Context, events []schema.Event) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range events {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
				e.ID, e.Name, e.Dates, e.Location, e.Description, e.EventType, e.TargetAudience,
			); err != nil {
				return fmt.Errorf("insert event %d: %w", e.ID, err)
			}
		}
		return nil
	})
}

// InsertEvent 写入单条活动记录。
func (s *Store) InsertEvent(ctx context.Context, e schema.Event) error {
	return s.InsertEvents(ctx, []schema.Event{e})
}
