package out

import (
	"context"

	ledgerout "streakd/internal/modules/ledger/port/out"
	streakin "streakd/internal/modules/streak/port/in"
)

type StreakAccess struct {
	streaks streakin.Usecase
}

func NewStreakAccess(streaks streakin.Usecase) ledgerout.StreakAccess {
	return StreakAccess{streaks: streaks}
}

func (a StreakAccess) Resolve(ctx context.Context, callerID, streakID string) (ledgerout.StreakRef, error) {
	streak, err := a.streaks.GetStreak(ctx, callerID, streakID)
	if err != nil {
		return ledgerout.StreakRef{}, err
	}
	return ledgerout.StreakRef{ID: streak.ID, Title: streak.Title}, nil
}
