package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incuhub/incuhub/internal/schema"
)

const userColumns = "id, email, name, role, founder_id, investor_id"

func scanUser(row interface{ Scan(...any) error }) (schema.User, error) {
	var u schema.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.FounderID, &u.InvestorID)
	return u, err
}

// ListUsers 返回本地已有的全部账号记录。
func (s *Store) ListUsers(ctx context.Context) ([]schema.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []schema.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser 按上游 id 查询账号，缺失时返回 ErrNotFound。
func (s *Store) GetUser(ctx context.Context, id int) (*schema.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUserByEmail 按邮箱查询账号，缺失时返回 ErrNotFound。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*schema.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// InsertUsers 在单个事务内写入整批账号记录。
func (s *Store) InsertUsers(ctx context.Context, users []schema.User) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, u := range users {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?)",
				u.ID, u.Email, u.Name, u.Role, u.FounderID, u.InvestorID,
			); err != nil {
				return fmt.Errorf("insert user %d: %w", u.ID, err)
			}
		}
		return nil
	})
}

// InsertUser 写入单条账号记录。
func (s *Store) InsertUser(ctx context.Context, u schema.User) error {
	return s.InsertUsers(ctx, []schema.User{u})
}
