package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"streakd/internal/modules/streak/domain"
	streakout "streakd/internal/modules/streak/port/out"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/sqlitedb"
)

type SQLiteCategoryStore struct {
	db *sql.DB
}

func NewSQLiteCategoryStore(db *sql.DB) (streakout.CategoryStore, error) {
	const ddl = `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  parent_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
`
	if _, err := db.ExecContext(context.Background(), ddl); err != nil {
		return nil, fmt.Errorf("create categories table: %w", err)
	}
	return &SQLiteCategoryStore{db: db}, nil
}

func (s *SQLiteCategoryStore) Insert(ctx context.Context, category domain.Category) error {
	_, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO categories (id, owner_id, name, parent_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		category.ID, category.OwnerID, category.Name, category.ParentID, sqlitedb.FormatTime(category.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *SQLiteCategoryStore) Get(ctx context.Context, id string) (domain.Category, error) {
	var (
		category  domain.Category
		createdAt string
	)
	err := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, owner_id, name, parent_id, created_at FROM categories WHERE id = ?`, id,
	).Scan(&category.ID, &category.OwnerID, &category.Name, &category.ParentID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, apperrors.ErrNotFound
		}
		return domain.Category{}, fmt.Errorf("get category: %w", err)
	}
	if category.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
		return domain.Category{}, fmt.Errorf("parse category created_at: %w", err)
	}
	return category, nil
}
