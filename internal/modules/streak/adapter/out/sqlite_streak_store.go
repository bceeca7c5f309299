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

type SQLiteStreakStore struct {
	db *sql.DB
}

func NewSQLiteStreakStore(db *sql.DB) (streakout.StreakStore, error) {
	store := &SQLiteStreakStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStreakStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS streaks (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  category_id TEXT NOT NULL,
  subcategory_id TEXT NOT NULL DEFAULT '',
  focus_minutes INTEGER NOT NULL,
  break_minutes INTEGER NOT NULL,
  break_repetition_budget INTEGER NOT NULL,
  difficulty TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_streaks_owner ON streaks(owner_id, created_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create streaks table: %w", err)
	}
	return nil
}

func (s *SQLiteStreakStore) Insert(ctx context.Context, streak domain.Streak) error {
	const stmt = `
INSERT INTO streaks (id, owner_id, title, category_id, subcategory_id, focus_minutes, break_minutes, break_repetition_budget, difficulty, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		streak.ID,
		streak.OwnerID,
		streak.Title,
		streak.CategoryID,
		streak.SubcategoryID,
		streak.Timing.FocusMinutes,
		streak.Timing.BreakMinutes,
		streak.Timing.BreakRepetitionBudget,
		string(streak.Difficulty),
		sqlitedb.FormatTime(streak.CreatedAt),
		sqlitedb.FormatTime(streak.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert streak: %w", err)
	}
	return nil
}

const selectStreak = `SELECT id, owner_id, title, category_id, subcategory_id, focus_minutes, break_minutes, break_repetition_budget, difficulty, created_at, updated_at FROM streaks`

func (s *SQLiteStreakStore) Get(ctx context.Context, id string) (domain.Streak, error) {
	row := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, selectStreak+` WHERE id = ?`, id)
	streak, err := scanStreak(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Streak{}, fmt.Errorf("streak %s: %w", id, apperrors.ErrNotFound)
		}
		return domain.Streak{}, fmt.Errorf("get streak: %w", err)
	}
	return streak, nil
}

func (s *SQLiteStreakStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Streak, error) {
	rows, err := sqlitedb.Conn(ctx, s.db).QueryContext(ctx, selectStreak+` WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	defer rows.Close()
	out := []domain.Streak{}
	for rows.Next() {
		streak, err := scanStreak(rows)
		if err != nil {
			return nil, fmt.Errorf("scan streak: %w", err)
		}
		out = append(out, streak)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streaks: %w", err)
	}
	return out, nil
}

func (s *SQLiteStreakStore) Update(ctx context.Context, streak domain.Streak) error {
	const stmt = `
UPDATE streaks SET
  title = ?,
  focus_minutes = ?,
  break_minutes = ?,
  break_repetition_budget = ?,
  difficulty = ?,
  updated_at = ?
WHERE id = ?`
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		streak.Title,
		streak.Timing.FocusMinutes,
		streak.Timing.BreakMinutes,
		streak.Timing.BreakRepetitionBudget,
		string(streak.Difficulty),
		sqlitedb.FormatTime(streak.UpdatedAt),
		streak.ID,
	)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return requireRow(res, "streak "+streak.ID)
}

func (s *SQLiteStreakStore) Delete(ctx context.Context, id string) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM streaks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete streak: %w", err)
	}
	return requireRow(res, "streak "+id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStreak(row scanner) (domain.Streak, error) {
	var (
		streak               domain.Streak
		difficulty           string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&streak.ID,
		&streak.OwnerID,
		&streak.Title,
		&streak.CategoryID,
		&streak.SubcategoryID,
		&streak.Timing.FocusMinutes,
		&streak.Timing.BreakMinutes,
		&streak.Timing.BreakRepetitionBudget,
		&difficulty,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Streak{}, err
	}
	streak.Difficulty = domain.Difficulty(difficulty)
	if streak.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
		return domain.Streak{}, fmt.Errorf("parse created_at: %w", err)
	}
	if streak.UpdatedAt, err = sqlitedb.ParseTime(updatedAt); err != nil {
		return domain.Streak{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return streak, nil
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	return nil
}
