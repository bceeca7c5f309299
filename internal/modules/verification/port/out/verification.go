package out

import (
	"context"

	"streakd/internal/modules/verification/domain"
)

// ManifestSource yields the analyzer manifest currently configured.
type ManifestSource interface {
	Load(ctx context.Context) (domain.Manifest, error)
}

// Analyzer runs the external authenticity analysis and returns its raw text.
type Analyzer interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	Analyze(ctx context.Context, manifest domain.Manifest, req domain.Request) (string, error)
}

type VerificationStore interface {
	Insert(ctx context.Context, v domain.Verification) error
	ListByStreak(ctx context.Context, streakID string) ([]domain.Verification, error)
}

type StreakRef struct {
	ID    string
	Title string
}

type StreakAccess interface {
	Resolve(ctx context.Context, callerID, streakID string) (StreakRef, error)
}

// HistoryLinker attaches verdicts to ledger history records.
type HistoryLinker interface {
	Check(ctx context.Context, callerID, streakID, historyID string) error
	MarkVerified(ctx context.Context, streakID, historyID string, verified bool) error
}
