package usecase

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"streakd/internal/modules/ledger/domain"
	"streakd/internal/modules/ledger/dto"
	ledgerin "streakd/internal/modules/ledger/port/in"
	ledgerout "streakd/internal/modules/ledger/port/out"
	"streakd/internal/modules/ledger/service"
	"streakd/internal/platform/logging"
)

type Interactor struct {
	svc     *service.LedgerService
	journal ledgerout.JournalWriter
	logger  hclog.Logger
}

// NewInteractor wires the ledger. journal may be nil.
func NewInteractor(svc *service.LedgerService, journal ledgerout.JournalWriter, logger hclog.Logger) ledgerin.Usecase {
	return &Interactor{svc: svc, journal: journal, logger: logging.OrDiscard(logger).Named("ledger")}
}

func (i *Interactor) Open(ctx context.Context, input dto.OpenInput) (dto.SessionOutput, error) {
	record, resumed, err := i.svc.Open(ctx, input.CallerID, input.StreakID)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	if resumed {
		i.logger.Info("resuming open session", "streak", input.StreakID, "history", record.ID)
	} else {
		i.logger.Info("session opened", "streak", input.StreakID, "history", record.ID)
	}
	return dto.SessionOutput{HistoryID: record.ID, StreakID: record.StreakID, StartTime: record.StartTime, Resumed: resumed}, nil
}

func (i *Interactor) End(ctx context.Context, input dto.EndInput) (dto.EndOutput, error) {
	var report *domain.Report
	if input.Report != nil {
		report = &domain.Report{FocusSeconds: input.Report.FocusSeconds, UsedBreakReps: input.Report.UsedBreakReps, BreakEvents: toDomainEvents(input.Report.BreakEvents)}
	}
	result, err := i.svc.End(ctx, input.CallerID, input.StreakID, input.Confirm, report)
	if err != nil {
		return dto.EndOutput{}, err
	}
	i.logger.Info("session closed", "streak", input.StreakID, "history", result.Record.ID, "duration_minutes", result.Record.DurationMinutes)
	i.writeJournal(ctx, ledgerout.JournalNote{Record: result.Record, StreakTitle: result.Streak.Title})
	return dto.EndOutput{HistoryID: result.Record.ID, DurationMinutes: result.Record.DurationMinutes}, nil
}

func (i *Interactor) Discard(ctx context.Context, input dto.DiscardInput) error {
	record, err := i.svc.Discard(ctx, input.CallerID, input.StreakID)
	if err != nil {
		return err
	}
	i.logger.Info("session discarded", "streak", input.StreakID, "history", record.ID, "started_at", record.StartTime)
	return nil
}

func (i *Interactor) ListHistory(ctx context.Context, input dto.ListHistoryInput) (dto.HistoryPage, error) {
	page, err := i.svc.ListHistory(ctx, input.CallerID, input.StreakID, input.Page, input.Limit)
	if err != nil {
		return dto.HistoryPage{}, err
	}
	out := dto.HistoryPage{Data: make([]dto.HistoryOutput, 0, len(page.Records)), Total: page.Total, Page: page.Page, Limit: page.Limit}
	for _, record := range page.Records {
		out.Data = append(out.Data, toOutput(record))
	}
	return out, nil
}

func (i *Interactor) Submit(ctx context.Context, input dto.SubmitInput) (dto.HistoryOutput, error) {
	result, err := i.svc.Submit(ctx, input.CallerID, input.StreakID, input.HistoryID, input.Description, input.PhotoURL)
	if err != nil {
		return dto.HistoryOutput{}, err
	}
	if !result.Record.IsOpen() {
		i.writeJournal(ctx, ledgerout.JournalNote{Record: result.Record, StreakTitle: result.Streak.Title})
	}
	return toOutput(result.Record), nil
}

func (i *Interactor) GetHistory(ctx context.Context, input dto.GetHistoryInput) (dto.HistoryOutput, error) {
	record, err := i.svc.Get(ctx, input.CallerID, input.StreakID, input.HistoryID)
	if err != nil {
		return dto.HistoryOutput{}, err
	}
	return toOutput(record), nil
}

func (i *Interactor) MarkVerified(ctx context.Context, input dto.MarkVerifiedInput) error {
	return i.svc.MarkVerified(ctx, input.StreakID, input.HistoryID, input.Verified)
}

func (i *Interactor) writeJournal(ctx context.Context, note ledgerout.JournalNote) {
	if i.journal == nil {
		return
	}
	path, err := i.journal.Write(ctx, note)
	if err != nil {
		i.logger.Warn("journal note not written", "history", note.Record.ID, "error", err)
		return
	}
	i.logger.Debug("journal note written", "history", note.Record.ID, "path", path)
}

func toDomainEvents(events []dto.BreakEvent) []domain.BreakEvent {
	out := make([]domain.BreakEvent, 0, len(events))
	for _, event := range events {
		out = append(out, domain.BreakEvent{
			StartTime:               event.StartTime,
			EndTime:                 event.EndTime,
			DurationSeconds:         event.DurationSeconds,
			FocusSecondsBeforeBreak: event.FocusSecondsBeforeBreak,
			Kind:                    domain.BreakKind(event.Kind),
		})
	}
	return out
}

func toOutput(record domain.HistoryRecord) dto.HistoryOutput {
	events := make([]dto.BreakEvent, 0, len(record.BreakEvents))
	for _, event := range record.BreakEvents {
		events = append(events, dto.BreakEvent{
			StartTime:               event.StartTime,
			EndTime:                 event.EndTime,
			DurationSeconds:         event.DurationSeconds,
			FocusSecondsBeforeBreak: event.FocusSecondsBeforeBreak,
			Kind:                    string(event.Kind),
		})
	}
	return dto.HistoryOutput{
		ID:                 record.ID,
		StreakID:           record.StreakID,
		StartTime:          record.StartTime,
		EndTime:            record.EndTime,
		Status:             string(record.Status),
		DurationMinutes:    record.DurationMinutes,
		Description:        record.Description,
		PhotoURL:           record.PhotoURL,
		Verified:           record.Verified,
		ClientFocusMinutes: record.ClientFocusMinutes,
		UsedBreakReps:      record.UsedBreakReps,
		BreakEvents:        events,
	}
}
