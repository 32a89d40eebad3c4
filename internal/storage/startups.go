package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/incuhub/incuhub/internal/schema"
)

const startupSummaryColumns = "id, name, legal_status, address, email, phone, sector, maturity"

// ListStartups 返回本地已有的全部创业公司摘要。
func (s *Store) ListStartups(ctx context.Context) ([]schema.StartupSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+startupSummaryColumns+" FROM startups ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list startups: %w", err)
	}
	defer rows.Close()

	var startups []schema.StartupSummary
	for rows.Next() {
		var su schema.StartupSummary
		if err := rows.Scan(&su.ID, &su.Name, &su.LegalStatus, &su.Address, &su.Email,
			&su.Phone, &su.Sector, &su.Maturity); err != nil {
			return nil, fmt.Errorf("scan startup: %w", err)
		}
		startups = append(startups, su)
	}
	return startups, rows.Err()
}

// GetStartup 返回单个创业公司的完整视图，含创始人列表。
// 列表填充产生的行没有详情字段与创始人，populate-once 策略下保持原样。
func (s *Store) GetStartup(ctx context.Context, id int) (*schema.StartupDetail, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+startupSummaryColumns+", created_at, description, website_url, social_media_url, project_status, needs FROM startups WHERE id = ?", id)
	var detail schema.StartupDetail
	err := row.Scan(&detail.ID, &detail.Name, &detail.LegalStatus, &detail.Address, &detail.Email,
		&detail.Phone, &detail.Sector, &detail.Maturity, &detail.CreatedAt, &detail.Description,
		&detail.WebsiteURL, &detail.SocialMediaURL, &detail.ProjectStatus, &detail.Needs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get startup: %w", err)
	}

	founders, err := s.foundersOf(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Founders = founders
	return &detail, nil
}

func (s *Store) foundersOf(ctx context.Context, startupID int) ([]schema.Founder, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, startup_id FROM founders WHERE startup_id = ? ORDER BY id", startupID)
	if err != nil {
		return nil, fmt.Errorf("list founders: %w", err)
	}
	defer rows.Close()

	founders := []schema.Founder{}
	for rows.Next() {
		var f schema.Founder
		if err := rows.Scan(&f.ID, &f.Name, &f.StartupID); err != nil {
			return nil, fmt.Errorf("scan founder: %w", err)
		}
		founders = append(founders, f)
	}
	return founders, rows.Err()
}

// InsertStartups 在单个事务内写入整批创业公司摘要。
func (s *Store) InsertStartups(ctx context.Context, startups []schema.StartupSummary) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, su := range startups {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO startups ("+startupSummaryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				su.ID, su.Name, su.LegalStatus, su.Address, su.Email, su.Phone, su.Sector, su.Maturity,
			); err != nil {
				return fmt.Errorf("insert startup %d: %w", su.ID, err)
			}
		}
		return nil
	})
}

// InsertStartupDetail 在同一事务内写入公司详情与创始人列表。
func (s *Store) InsertStartupDetail(ctx context.Context, detail schema.StartupDetail) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO startups ("+startupSummaryColumns+", created_at, description, website_url, social_media_url, project_status, needs) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			detail.ID, detail.Name, detail.LegalStatus, detail.Address, detail.Email, detail.Phone,
			detail.Sector, detail.Maturity, detail.CreatedAt, detail.Description, detail.WebsiteURL,
			detail.SocialMediaURL, detail.ProjectStatus, detail.Needs,
		); err != nil {
			return fmt.Errorf("insert startup detail %d: %w", detail.ID, err)
		}
		for _, f := range detail.Founders {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO founders (id, name, startup_id) VALUES (?, ?, ?)",
				f.ID, f.Name, f.StartupID,
			); err != nil {
				return fmt.Errorf("insert founder %d: %w", f.ID, err)
			}
		}
		return nil
	})
}
