package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incuhub/incuhub/internal/schema"
)

const partnerColumns = "id, name, legal_status, address, email, phone, created_at, description, partnership_type"

func scanPartner(row interface{ Scan(...any) error }) (schema.Partner, error) {
	var p schema.Partner
	err := row.Scan(&p.ID, &p.Name, &p.LegalStatus, &p.Address, &p.Email, &p.Phone,
		&p.CreatedAt, &p.Description, &p.PartnershipType)
	return p, err
}

// ListPartners 返回本地已有的全部合作伙伴记录。
func (s *Store) ListPartners(ctx context.Context) ([]schema.Partner, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+partnerColumns+" FROM partners ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var partners []schema.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

// GetPartner 按上游 id 查询单个合作伙伴，缺失时返回 ErrNotFound。
func (s *Store) GetPartner(ctx context.Context, id int) (*schema.Partner, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+partnerColumns+" FROM partners WHERE id = ?", id)
	p, err := scanPartner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return &p, nil
}

// InsertPartners 在单个事务内写入整批合作伙伴记录。
func (s *Store) InsertPartners(ctx context.Context, partners []schema.Partner) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range partners {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO partners ("+partnerColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
				p.ID, p.Name, p.LegalStatus, p.Address, p.Email, p.Phone,
				p.CreatedAt, p.Description, p.PartnershipType,
			); err != nil {
				return fmt.Errorf("insert partner %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// InsertPartner 写入单条合作伙伴记录。
func (s *Store) InsertPartner(ctx context.Context, p schema.Partner) error {
	return s.InsertPartners(ctx, []schema.Partner{p})
}
