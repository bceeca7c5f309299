package out

import (
	"context"
	"fmt"

	ledgerdto "streakd/internal/modules/ledger/dto"
	ledgerin "streakd/internal/modules/ledger/port/in"
	verificationout "streakd/internal/modules/verification/port/out"
	apperrors "streakd/internal/platform/errors"
)

type HistoryLinker struct {
	ledger ledgerin.Usecase
}

func NewHistoryLinker(ledger ledgerin.Usecase) verificationout.HistoryLinker {
	return HistoryLinker{ledger: ledger}
}

// Check accepts only closed records of the streak.
func (l HistoryLinker) Check(ctx context.Context, callerID, streakID, historyID string) error {
	record, err := l.ledger.GetHistory(ctx, ledgerdto.GetHistoryInput{CallerID: callerID, StreakID: streakID, HistoryID: historyID})
	if err != nil {
		return err
	}
	if record.Status != "closed" {
		return fmt.Errorf("%w: history %s is still open", apperrors.ErrInvalidInput, historyID)
	}
	return nil
}

func (l HistoryLinker) MarkVerified(ctx context.Context, streakID, historyID string, verified bool) error {
	return l.ledger.MarkVerified(ctx, ledgerdto.MarkVerifiedInput{StreakID: streakID, HistoryID: historyID, Verified: verified})
}
