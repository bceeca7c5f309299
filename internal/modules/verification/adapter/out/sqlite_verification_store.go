package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"streakd/internal/modules/verification/domain"
	verificationout "streakd/internal/modules/verification/port/out"
	"streakd/internal/platform/sqlitedb"
)

type SQLiteVerificationStore struct {
	db *sql.DB
}

func NewSQLiteVerificationStore(db *sql.DB) (*SQLiteVerificationStore, error) {
	store := &SQLiteVerificationStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

var _ verificationout.VerificationStore = (*SQLiteVerificationStore)(nil)

func (s *SQLiteVerificationStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ai_verifications (
  id TEXT PRIMARY KEY,
  streak_id TEXT NOT NULL,
  history_id TEXT NOT NULL DEFAULT '',
  verified INTEGER NOT NULL,
  confidence REAL NOT NULL,
  result_text TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_verifications_streak ON ai_verifications(streak_id, created_at DESC);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create ai_verifications table: %w", err)
	}
	return nil
}

func (s *SQLiteVerificationStore) Insert(ctx context.Context, v domain.Verification) error {
	const stmt = `
INSERT INTO ai_verifications (id, streak_id, history_id, verified, confidence, result_text, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		v.ID, v.StreakID, v.HistoryID, v.Verified, v.Confidence, v.ResultText, sqlitedb.FormatTime(v.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *SQLiteVerificationStore) ListByStreak(ctx context.Context, streakID string) ([]domain.Verification, error) {
	const query = `
SELECT id, streak_id, history_id, verified, confidence, result_text, created_at
FROM ai_verifications WHERE streak_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := sqlitedb.Conn(ctx, s.db).QueryContext(ctx, query, streakID)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	out := []domain.Verification{}
	for rows.Next() {
		var (
			v         domain.Verification
			createdAt string
		)
		if err := rows.Scan(&v.ID, &v.StreakID, &v.HistoryID, &v.Verified, &v.Confidence, &v.ResultText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		if v.CreatedAt, err = sqlitedb.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		// Stored text already passed validation; a decode failure leaves the verdict zero.
		_ = json.Unmarshal([]byte(v.ResultText), &v.Verdict)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}

func (s *SQLiteVerificationStore) PurgeStreak(ctx context.Context, streakID string) error {
	if _, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM ai_verifications WHERE streak_id = ?`, streakID); err != nil {
		return fmt.Errorf("purge verifications: %w", err)
	}
	return nil
}
