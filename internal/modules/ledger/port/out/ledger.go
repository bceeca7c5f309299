package out

import (
	"context"

	"streakd/internal/modules/ledger/domain"
)

type HistoryStore interface {
	// InsertOpen reports false when the streak already has an open record.
	InsertOpen(ctx context.Context, record domain.HistoryRecord) (bool, error)
	FindOpen(ctx context.Context, streakID string) (domain.HistoryRecord, error)
	// Close applies only while the stored row is still open.
	Close(ctx context.Context, record domain.HistoryRecord) error
	DeleteOpen(ctx context.Context, historyID string) error
	Get(ctx context.Context, historyID string) (domain.HistoryRecord, error)
	List(ctx context.Context, streakID string, offset, limit int) ([]domain.HistoryRecord, int, error)
	UpdateDocumentation(ctx context.Context, historyID, description, photoURL string) error
	SetVerified(ctx context.Context, historyID string, verified bool) error
}

type StreakRef struct {
	ID    string
	Title string
}

// StreakAccess resolves a streak and checks the caller owns it.
type StreakAccess interface {
	Resolve(ctx context.Context, callerID, streakID string) (StreakRef, error)
}

type JournalNote struct {
	Record      domain.HistoryRecord
	StreakTitle string
}

type JournalWriter interface {
	Write(ctx context.Context, note JournalNote) (string, error)
}
