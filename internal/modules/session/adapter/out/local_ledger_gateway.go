package out

import (
	"context"

	ledgerdto "streakd/internal/modules/ledger/dto"
	ledgerin "streakd/internal/modules/ledger/port/in"
	"streakd/internal/modules/session/domain"
	sessionout "streakd/internal/modules/session/port/out"
)

// LocalLedgerGateway calls the ledger usecase in the same process.
type LocalLedgerGateway struct {
	ledger ledgerin.Usecase
}

func NewLocalLedgerGateway(ledger ledgerin.Usecase) sessionout.LedgerGateway {
	return LocalLedgerGateway{ledger: ledger}
}

func (g LocalLedgerGateway) Open(ctx context.Context, userID, streakID string) (sessionout.OpenedRecord, error) {
	out, err := g.ledger.Open(ctx, ledgerdto.OpenInput{CallerID: userID, StreakID: streakID})
	if err != nil {
		return sessionout.OpenedRecord{}, err
	}
	return sessionout.OpenedRecord{HistoryID: out.HistoryID, Resumed: out.Resumed}, nil
}

func (g LocalLedgerGateway) End(ctx context.Context, userID, streakID string, completion domain.Completion) (int, error) {
	out, err := g.ledger.End(ctx, ledgerdto.EndInput{
		CallerID: userID,
		StreakID: streakID,
		Confirm:  ledgerConfirm,
		Report:   toReport(completion),
	})
	if err != nil {
		return 0, err
	}
	return out.DurationMinutes, nil
}

func (g LocalLedgerGateway) Discard(ctx context.Context, userID, streakID string) error {
	return g.ledger.Discard(ctx, ledgerdto.DiscardInput{CallerID: userID, StreakID: streakID})
}

const ledgerConfirm = "END"

func toReport(completion domain.Completion) *ledgerdto.SessionReport {
	events := make([]ledgerdto.BreakEvent, 0, len(completion.BreakEvents))
	for _, event := range completion.BreakEvents {
		events = append(events, ledgerdto.BreakEvent{
			StartTime:               event.StartTime,
			EndTime:                 event.EndTime,
			DurationSeconds:         event.DurationSeconds,
			FocusSecondsBeforeBreak: event.FocusSecondsBeforeBreak,
			Kind:                    string(event.Kind),
		})
	}
	return &ledgerdto.SessionReport{
		FocusSeconds:  completion.TotalFocusSeconds,
		UsedBreakReps: completion.UsedBreakReps,
		BreakEvents:   events,
	}
}
