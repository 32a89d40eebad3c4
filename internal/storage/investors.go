package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incuhub/incuhub/internal/schema"
)

const investorColumns = "id, name, legal_status, address, email, phone, created_at, description, investor_type, investment_focus"

func scanInvestor(row interface{ Scan(...any) error }) (schema.Investor, error) {
	var in schema.Investor
	err := row.Scan(&in.ID, &in.Name, &in.LegalStatus, &in.Address, &in.Email, &in.Phone,
		&in.CreatedAt, &in.Description, &in.InvestorType, &in.InvestmentFocus)
	return in, err
}

// ListInvestors 返回本地已有的全部投资人记录。
func (s *Store) ListInvestors(ctx context.Context) ([]schema.Investor, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+investorColumns+" FROM investors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list investors: %w", err)
	}
	defer rows.Close()

	var investors []schema.Investor
	for rows.Next() {
		in, err := scanInvestor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investor: %w", err)
		}
		investors = append(investors, in)
	}
	return investors, rows.Err()
}

// GetInvestor 按上游 id 查询单个投资人，缺失时返回 ErrNotFound。
func (s *Store) GetInvestor(ctx context.Context, id int) (*schema.Investor, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+investorColumns+" FROM investors WHERE id = ?", id)
	in, err := scanInvestor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get investor: %w", err)
	}
	return &in, nil
}

// InsertInvestors 在单个事务内写入整批投资人记录。
func (s *Store) InsertInvestors(ctx context.Context, investors []schema.Investor) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, in := range investors {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO investors ("+investorColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				in.ID, in.Name, in.LegalStatus, in.Address, in.Email, in.Phone,
				in.CreatedAt, in.Description, in.InvestorType, in.InvestmentFocus,
			); err != nil {
				return fmt.Errorf("insert investor %d: %w", in.ID, err)
			}
		}
		return nil
	})
}

// InsertInvestor 写入单条投资人记录。
func (s *Store) InsertInvestor(ctx context.Context, in schema.Investor) error {
	return s.InsertInvestors(ctx, []schema.Investor{in})
}
