package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"streakd/internal/modules/ledger/domain"
	ledgerout "streakd/internal/modules/ledger/port/out"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/sqlitedb"
)

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(db *sql.DB) (*SQLiteHistoryStore, error) {
	store := &SQLiteHistoryStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

var _ ledgerout.HistoryStore = (*SQLiteHistoryStore)(nil)

func (s *SQLiteHistoryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS history (
  id TEXT PRIMARY KEY,
  streak_id TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT,
  status TEXT NOT NULL CHECK (status IN ('open', 'closed')),
  duration_minutes INTEGER NOT NULL DEFAULT 0,
  description TEXT NOT NULL DEFAULT '',
  photo_url TEXT NOT NULL DEFAULT '',
  verified INTEGER NOT NULL DEFAULT 0,
  client_focus_minutes INTEGER,
  used_break_reps INTEGER NOT NULL DEFAULT 0,
  break_events TEXT NOT NULL DEFAULT '[]'
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_history_one_open ON history(streak_id) WHERE status = 'open';
CREATE INDEX IF NOT EXISTS idx_history_streak_start ON history(streak_id, start_time DESC);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) InsertOpen(ctx context.Context, record domain.HistoryRecord) (bool, error) {
	const stmt = `
INSERT INTO history (id, streak_id, start_time, status)
VALUES (?, ?, ?, 'open')
ON CONFLICT (streak_id) WHERE status = 'open' DO NOTHING`
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt, record.ID, record.StreakID, sqlitedb.FormatTime(record.StartTime))
	if err != nil {
		return false, fmt.Errorf("insert history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

const selectHistory = `SELECT id, streak_id, start_time, end_time, status, duration_minutes, description, photo_url, verified, client_focus_minutes, used_break_reps, break_events FROM history`

func (s *SQLiteHistoryStore) FindOpen(ctx context.Context, streakID string) (domain.HistoryRecord, error) {
	row := sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, selectHistory+` WHERE streak_id = ? AND status = 'open' ORDER BY start_time DESC LIMIT 1`, streakID)
	record, err := scanHistory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.HistoryRecord{}, fmt.Errorf("streak %s: %w", streakID, apperrors.ErrNoOpenSession)
		}
		return domain.HistoryRecord{}, fmt.Errorf("find open history: %w", err)
	}
	return record, nil
}

func (s *SQLiteHistoryStore) Close(ctx context.Context, record domain.HistoryRecord) error {
	events, err := json.Marshal(record.BreakEvents)
	if err != nil {
		return fmt.Errorf("encode break events: %w", err)
	}
	var clientMinutes sql.NullInt64
	if record.ClientFocusMinutes != nil {
		clientMinutes = sql.NullInt64{Int64: int64(*record.ClientFocusMinutes), Valid: true}
	}
	const stmt = `
UPDATE history SET
  end_time = ?,
  status = 'closed',
  duration_minutes = ?,
  client_focus_minutes = ?,
  used_break_reps = ?,
  break_events = ?
WHERE id = ? AND status = 'open'`
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, stmt,
		sqlitedb.NullTime(record.EndTime),
		record.DurationMinutes,
		clientMinutes,
		record.UsedBreakReps,
		string(events),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	return requireRow(res, "history "+record.ID, apperrors.ErrNoOpenSession)
}

func (s *SQLiteHistoryStore) DeleteOpen(ctx context.Context, historyID string) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM history WHERE id = ? AND status = 'open'`, historyID)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return requireRow(res, "history "+historyID, apperrors.ErrNoOpenSession)
}

func (s *SQLiteHistoryStore) Get(ctx context.Context, historyID string) (domain.HistoryRecord, error) {
	record, err := scanHistory(sqlitedb.Conn(ctx, s.db).QueryRowContext(ctx, selectHistory+` WHERE id = ?`, historyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.HistoryRecord{}, fmt.Errorf("history %s: %w", historyID, apperrors.ErrNotFound)
		}
		return domain.HistoryRecord{}, fmt.Errorf("get history: %w", err)
	}
	return record, nil
}

func (s *SQLiteHistoryStore) List(ctx context.Context, streakID string, offset, limit int) ([]domain.HistoryRecord, int, error) {
	conn := sqlitedb.Conn(ctx, s.db)
	total := 0
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE streak_id = ?`, streakID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}
	rows, err := conn.QueryContext(ctx, selectHistory+` WHERE streak_id = ? ORDER BY start_time DESC, id DESC LIMIT ? OFFSET ?`, streakID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	out := []domain.HistoryRecord{}
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate history: %w", err)
	}
	return out, total, nil
}

func (s *SQLiteHistoryStore) UpdateDocumentation(ctx context.Context, historyID, description, photoURL string) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `UPDATE history SET description = ?, photo_url = ? WHERE id = ?`, description, photoURL, historyID)
	if err != nil {
		return fmt.Errorf("update documentation: %w", err)
	}
	return requireRow(res, "history "+historyID, apperrors.ErrNotFound)
}

func (s *SQLiteHistoryStore) SetVerified(ctx context.Context, historyID string, verified bool) error {
	res, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `UPDATE history SET verified = ? WHERE id = ?`, verified, historyID)
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	return requireRow(res, "history "+historyID, apperrors.ErrNotFound)
}

// PurgeStreak removes every record of the streak, open or closed.
func (s *SQLiteHistoryStore) PurgeStreak(ctx context.Context, streakID string) error {
	if _, err := sqlitedb.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM history WHERE streak_id = ?`, streakID); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistory(row scanner) (domain.HistoryRecord, error) {
	var (
		record        domain.HistoryRecord
		startTime     string
		endTime       sql.NullString
		status        string
		clientMinutes sql.NullInt64
		events        string
	)
	err := row.Scan(
		&record.ID,
		&record.StreakID,
		&startTime,
		&endTime,
		&status,
		&record.DurationMinutes,
		&record.Description,
		&record.PhotoURL,
		&record.Verified,
		&clientMinutes,
		&record.UsedBreakReps,
		&events,
	)
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	record.Status = domain.Status(status)
	if record.StartTime, err = sqlitedb.ParseTime(startTime); err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("parse start_time: %w", err)
	}
	if endTime.Valid {
		parsed, err := sqlitedb.ParseTime(endTime.String)
		if err != nil {
			return domain.HistoryRecord{}, fmt.Errorf("parse end_time: %w", err)
		}
		record.EndTime = &parsed
	}
	if clientMinutes.Valid {
		minutes := int(clientMinutes.Int64)
		record.ClientFocusMinutes = &minutes
	}
	record.BreakEvents = []domain.BreakEvent{}
	if err := json.Unmarshal([]byte(events), &record.BreakEvents); err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("decode break events: %w", err)
	}
	return record, nil
}

func requireRow(res sql.Result, what string, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, missing)
	}
	return nil
}
