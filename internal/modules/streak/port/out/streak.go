package out

import (
	"context"

	"streakd/internal/modules/streak/domain"
)

type StreakStore interface {
	Insert(ctx context.Context, streak domain.Streak) error
	Get(ctx context.Context, id string) (domain.Streak, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Streak, error)
	Update(ctx context.Context, streak domain.Streak) error
	Delete(ctx context.Context, id string) error
}

type CategoryStore interface {
	Insert(ctx context.Context, category domain.Category) error
	Get(ctx context.Context, id string) (domain.Category, error)
}

// DependentPurger removes records that hang off a streak. Deletion calls every
// purger before the streak row itself goes.
type DependentPurger interface {
	PurgeStreak(ctx context.Context, streakID string) error
}
