package out

import (
	"context"

	streakin "streakd/internal/modules/streak/port/in"
	verificationout "streakd/internal/modules/verification/port/out"
)

type StreakAccess struct {
	streaks streakin.Usecase
}

func NewStreakAccess(streaks streakin.Usecase) verificationout.StreakAccess {
	return StreakAccess{streaks: streaks}
}

func (a StreakAccess) Resolve(ctx context.Context, callerID, streakID string) (verificationout.StreakRef, error) {
	streak, err := a.streaks.GetStreak(ctx, callerID, streakID)
	if err != nil {
		return verificationout.StreakRef{}, err
	}
	return verificationout.StreakRef{ID: streak.ID, Title: streak.Title}, nil
}
