package out

import (
	"context"

	"streakd/internal/modules/session/domain"
)

type SnapshotStore interface {
	Save(ctx context.Context, snapshot domain.Snapshot) error
	// Load returns apperrors.ErrNoSnapshot when the pair has none.
	Load(ctx context.Context, userID, streakID string) (domain.Snapshot, error)
	Clear(ctx context.Context, userID, streakID string) error
	List(ctx context.Context, userID string) ([]domain.Snapshot, error)
	// Quarantine moves the pair's snapshot aside and returns where it went.
	Quarantine(ctx context.Context, userID, streakID string) (string, error)
}

type StreakSettings struct {
	ID                    string
	Title                 string
	FocusMinutes          int
	BreakMinutes          int
	BreakRepetitionBudget int
}

type StreakReader interface {
	Settings(ctx context.Context, userID, streakID string) (StreakSettings, error)
}

type OpenedRecord struct {
	HistoryID string
	Resumed   bool
}

// LedgerGateway reaches the server-side ledger, in process or over HTTP.
type LedgerGateway interface {
	Open(ctx context.Context, userID, streakID string) (OpenedRecord, error)
	End(ctx context.Context, userID, streakID string, completion domain.Completion) (int, error)
	Discard(ctx context.Context, userID, streakID string) error
}
