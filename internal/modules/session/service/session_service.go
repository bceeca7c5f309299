package service

import (
	"fmt"

	"streakd/internal/modules/session/domain"
	"streakd/internal/modules/session/dto"
	sessionout "streakd/internal/modules/session/port/out"
	"streakd/internal/platform/clock"
	apperrors "streakd/internal/platform/errors"
)

// Run is a live SessionClock plus what the engine needs to persist it.
type Run struct {
	UserID     string
	StreakID   string
	HistoryID  string
	Title      string
	Clock      *domain.SessionClock
	UI         domain.UIPosition
	Resumed    bool
	dirty      bool
	completion *domain.Completion
}

// Dirty reports whether the clock changed since the last call.
func (r *Run) Dirty() bool {
	dirty := r.dirty
	r.dirty = false
	return dirty
}

// Completion is set once the clock reached a terminal state.
func (r *Run) Completion() (domain.Completion, bool) {
	if r.completion == nil {
		return domain.Completion{}, false
	}
	return *r.completion, true
}

func (r *Run) hooks() domain.Hooks {
	return domain.Hooks{
		OnChange: func(domain.State) { r.dirty = true },
		OnTerminal: func(c domain.Completion) {
			r.dirty = true
			r.completion = &c
		},
	}
}

type SessionService struct {
	clock clock.Clock
}

func NewSessionService(clock clock.Clock) *SessionService {
	return &SessionService{clock: clock}
}

// Begin builds the run's config from the streak and starts focusing.
func (s *SessionService) Begin(userID string, settings sessionout.StreakSettings, historyID string) (*Run, error) {
	config, err := domain.NewSessionConfig(settings.FocusMinutes, settings.BreakMinutes, settings.BreakRepetitionBudget)
	if err != nil {
		return nil, err
	}
	run := &Run{UserID: userID, StreakID: settings.ID, HistoryID: historyID, Title: settings.Title}
	run.Clock = domain.NewSessionClock(config, s.clock, run.hooks())
	run.Clock.Start()
	return run, nil
}

func (s *SessionService) Restore(snapshot domain.Snapshot) (*Run, error) {
	run := &Run{
		UserID:    snapshot.UserID,
		StreakID:  snapshot.StreakID,
		HistoryID: snapshot.HistoryID,
		Title:     snapshot.Title,
		UI:        snapshot.UIPosition,
		Resumed:   true,
	}
	restored, err := domain.Rehydrate(snapshot.Config, snapshot.State, s.clock, run.hooks())
	if err != nil {
		return nil, fmt.Errorf("restore run for streak %s: %w", snapshot.StreakID, err)
	}
	run.Clock = restored
	return run, nil
}

func (s *SessionService) Snapshot(run *Run) domain.Snapshot {
	return domain.Snapshot{
		UserID:     run.UserID,
		StreakID:   run.StreakID,
		HistoryID:  run.HistoryID,
		Title:      run.Title,
		Config:     run.Clock.Config(),
		State:      run.Clock.State(),
		UIPosition: run.UI,
		SavedAt:    s.clock.Now(),
	}
}

func (s *SessionService) Apply(run *Run, op dto.Operation) (bool, error) {
	c := run.Clock
	switch op {
	case dto.OpStart:
		return c.Start(), nil
	case dto.OpTick:
		return c.Tick(), nil
	case dto.OpPause:
		return c.Pause(), nil
	case dto.OpResume:
		return c.Resume(), nil
	case dto.OpTakeBreak:
		return c.TakeBreak(), nil
	case dto.OpSkipBreak:
		return c.SkipBreak(), nil
	case dto.OpBackToFocus:
		return c.BackToFocus(), nil
	case dto.OpCancel:
		return c.Cancel(), nil
	case dto.OpEnd:
		return c.EndSession(), nil
	default:
		return false, fmt.Errorf("%w: unknown operation %q", apperrors.ErrInvalidInput, op)
	}
}

func View(run *Run) dto.RunView {
	state := run.Clock.State()
	config := run.Clock.Config()
	view := dto.RunView{
		StreakID:           run.StreakID,
		Title:              run.Title,
		HistoryID:          run.HistoryID,
		Mode:               string(state.Mode),
		Running:            state.Running,
		RemainingSeconds:   state.RemainingSeconds,
		FocusSeconds:       config.FocusSeconds,
		BreakSeconds:       config.BreakSeconds,
		TotalFocusSeconds:  run.Clock.TotalFocusSeconds(),
		RemainingBreakReps: state.RemainingBreakReps,
		UsedBreakReps:      state.UsedBreakReps,
		BreakEvents:        len(state.BreakEvents),
		UIX:                run.UI.X,
		UIY:                run.UI.Y,
		Resumed:            run.Resumed,
	}
	if completion, ok := run.Completion(); ok {
		view.Outcome = string(completion.Outcome)
		view.TotalFocusSeconds = completion.TotalFocusSeconds
	}
	return view
}
