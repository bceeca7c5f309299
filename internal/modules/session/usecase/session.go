package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"streakd/internal/modules/session/domain"
	sessiondto "streakd/internal/modules/session/dto"
	sessionin "streakd/internal/modules/session/port/in"
	sessionout "streakd/internal/modules/session/port/out"
	"streakd/internal/modules/session/service"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/logging"
)

// Interactor is the client-side session engine. Runs are keyed by
// (user, streak) so several can be live at once.
type Interactor struct {
	svc       *service.SessionService
	streaks   sessionout.StreakReader
	ledger    sessionout.LedgerGateway
	snapshots sessionout.SnapshotStore
	logger    hclog.Logger

	mu   sync.Mutex
	runs map[sessiondto.RunKey]*service.Run
}

func NewInteractor(svc *service.SessionService, streaks sessionout.StreakReader, ledger sessionout.LedgerGateway, snapshots sessionout.SnapshotStore, logger hclog.Logger) sessionin.Usecase {
	return &Interactor{
		svc:       svc,
		streaks:   streaks,
		ledger:    ledger,
		snapshots: snapshots,
		logger:    logging.OrDiscard(logger).Named("session"),
		runs:      map[sessiondto.RunKey]*service.Run{},
	}
}

func (i *Interactor) Open(ctx context.Context, key sessiondto.RunKey) (sessiondto.RunView, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	run, err := i.load(ctx, key)
	if err == nil {
		return service.View(run), nil
	}
	if errors.Is(err, domain.ErrUnreadableSnapshot) {
		moved, qerr := i.snapshots.Quarantine(ctx, key.UserID, key.StreakID)
		if qerr != nil {
			return sessiondto.RunView{}, fmt.Errorf("%v; %w", err, qerr)
		}
		i.logger.Warn("snapshot quarantined, starting a new run", "streak", key.StreakID, "moved_to", moved, "error", err)
	} else if !errors.Is(err, apperrors.ErrNoSnapshot) {
		return sessiondto.RunView{}, err
	}

	settings, err := i.streaks.Settings(ctx, key.UserID, key.StreakID)
	if err != nil {
		return sessiondto.RunView{}, err
	}
	opened, err := i.ledger.Open(ctx, key.UserID, key.StreakID)
	if err != nil {
		return sessiondto.RunView{}, fmt.Errorf("open ledger record: %w", err)
	}
	run, err = i.svc.Begin(key.UserID, settings, opened.HistoryID)
	if err != nil {
		return sessiondto.RunView{}, err
	}
	i.runs[key] = run
	i.persist(ctx, run)
	i.logger.Info("run started", "streak", key.StreakID, "history", opened.HistoryID, "focus_seconds", run.Clock.Config().FocusSeconds)
	return service.View(run), nil
}

func (i *Interactor) Apply(ctx context.Context, input sessiondto.ApplyInput) (sessiondto.ApplyOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	run, err := i.load(ctx, input.Key)
	if err != nil {
		return sessiondto.ApplyOutput{}, err
	}
	applied, err := i.svc.Apply(run, input.Op)
	if err != nil {
		return sessiondto.ApplyOutput{}, err
	}
	if !applied && input.Op != sessiondto.OpTick {
		i.logger.Debug("operation ignored", "streak", input.Key.StreakID, "op", input.Op, "mode", run.Clock.State().Mode)
	}
	view := service.View(run)
	if completion, done := run.Completion(); done {
		i.finish(ctx, input.Key, run, completion, &view)
		return sessiondto.ApplyOutput{Applied: applied, View: view}, nil
	}
	if run.Dirty() {
		i.persist(ctx, run)
	}
	return sessiondto.ApplyOutput{Applied: applied, View: view}, nil
}

func (i *Interactor) Move(ctx context.Context, input sessiondto.MoveInput) (sessiondto.RunView, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	run, err := i.load(ctx, input.Key)
	if err != nil {
		return sessiondto.RunView{}, err
	}
	run.UI.X += input.DX
	run.UI.Y += input.DY
	i.persist(ctx, run)
	return service.View(run), nil
}

func (i *Interactor) Pending(ctx context.Context, userID string) ([]sessiondto.PendingRun, error) {
	snapshots, err := i.snapshots.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.PendingRun, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, sessiondto.PendingRun{
			StreakID:         snapshot.StreakID,
			Title:            snapshot.Title,
			Mode:             string(snapshot.State.Mode),
			RemainingSeconds: snapshot.State.RemainingSeconds,
		})
	}
	return out, nil
}

// load returns the live run for key, rehydrating it from its snapshot when
// the process restarted.
func (i *Interactor) load(ctx context.Context, key sessiondto.RunKey) (*service.Run, error) {
	if run, ok := i.runs[key]; ok {
		return run, nil
	}
	snapshot, err := i.snapshots.Load(ctx, key.UserID, key.StreakID)
	if err != nil {
		return nil, err
	}
	run, err := i.svc.Restore(snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableSnapshot, err)
	}
	i.runs[key] = run
	i.logger.Info("run rehydrated", "streak", key.StreakID, "mode", snapshot.State.Mode, "remaining_seconds", snapshot.State.RemainingSeconds)
	return run, nil
}

func (i *Interactor) persist(ctx context.Context, run *service.Run) {
	if err := i.snapshots.Save(ctx, i.svc.Snapshot(run)); err != nil {
		i.logger.Warn("snapshot not saved", "streak", run.StreakID, "error", err)
	}
}

// finish reports the completion to the ledger. Ledger failures are logged
// and the run still ends locally.
func (i *Interactor) finish(ctx context.Context, key sessiondto.RunKey, run *service.Run, completion domain.Completion, view *sessiondto.RunView) {
	delete(i.runs, key)
	if err := i.snapshots.Clear(ctx, key.UserID, key.StreakID); err != nil {
		i.logger.Warn("snapshot not cleared", "streak", key.StreakID, "error", err)
	}

	if completion.Outcome == domain.OutcomeDiscarded {
		if err := i.ledger.Discard(ctx, key.UserID, key.StreakID); err != nil {
			view.LedgerError = err.Error()
			i.logger.Error("discard not recorded", "streak", key.StreakID, "history", run.HistoryID, "error", err)
		}
		i.logger.Info("run discarded",
			"streak", key.StreakID,
			"history", run.HistoryID,
			"focus_seconds", completion.TotalFocusSeconds,
			"used_break_reps", completion.UsedBreakReps,
			"break_events", completion.BreakEvents,
		)
		return
	}

	minutes, err := i.ledger.End(ctx, key.UserID, key.StreakID, completion)
	if err != nil {
		view.LedgerError = err.Error()
		i.logger.Error("completion not recorded", "streak", key.StreakID, "history", run.HistoryID, "focus_seconds", completion.TotalFocusSeconds, "error", err)
		return
	}
	view.RecordedDurationMinutes = &minutes
	i.logger.Info("run recorded", "streak", key.StreakID, "history", run.HistoryID, "outcome", completion.Outcome, "duration_minutes", minutes)
}
