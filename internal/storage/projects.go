package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Project 是本地独有的项目实体，nugget 为点赞数，仅在查询时聚合。
type Project struct {
	ID          int     `json:"id"`
	Logo        *string `json:"logo"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Worth       int     `json:"worth"`
	StartupID   int     `json:"startup_id"`
	Nugget      int     `json:"nugget"`
}

const projectSelect = `
SELECT p.id, p.logo, p.name, p.description, p.worth, p.startup_id,
       (SELECT COUNT(*) FROM user_likes l WHERE l.project_id = p.id) AS nugget
FROM projects p`

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Logo, &p.Name, &p.Description, &p.Worth, &p.StartupID, &p.Nugget)
	return p, err
}

// ListProjects 返回全部项目及其点赞数。
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, projectSelect+" ORDER BY p.id")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject 按 id 查询项目，缺失时返回 ErrNotFound。
func (s *Store) GetProject(ctx context.Context, id int) (*Project, error) {
	row := s.db.QueryRowContext(ctx, projectSelect+" WHERE p.id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// CreateProject 创建项目并返回分配的本地主键。
func (s *Store) CreateProject(ctx context.Context, p Project) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (logo, name, description, worth, startup_id) VALUES (?, ?, ?, ?, ?)",
		p.Logo, p.Name, p.Description, p.Worth, p.StartupID,
	)
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create project id: %w", err)
	}
	return int(id), nil
}

// DeleteProject 删除项目及其点赞，项目不存在时返回 ErrNotFound。
func (s *Store) DeleteProject(ctx context.Context, id int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_likes WHERE project_id = ?", id); err != nil {
			return fmt.Errorf("delete project likes: %w", err)
		}
		return nil
	})
}

// LikeProject 记录一次点赞；重复点赞返回 ErrDuplicate。
func (s *Store) LikeProject(ctx context.Context, userID, projectID int) error {
	result, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_likes (user_id, project_id) VALUES (?, ?)",
		userID, projectID,
	)
	if err != nil {
		return fmt.Errorf("like project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("like project: %w", err)
	}
	if affected == 0 {
		return ErrDuplicate
	}
	return nil
}
