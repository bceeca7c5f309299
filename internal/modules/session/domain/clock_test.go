package domain

import (
	"testing"
	"time"

	"streakd/internal/platform/clock"
)

type recorder struct {
	changes     int
	completions []Completion
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnChange:   func(State) { r.changes++ },
		OnTerminal: func(c Completion) { r.completions = append(r.completions, c) },
	}
}

func newClock(t *testing.T, focus, brk, budget int) (*SessionClock, *recorder, *clock.Manual) {
	t.Helper()
	cfg, err := NewSessionConfig(focus, brk, budget)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	rec := &recorder{}
	clk := &clock.Manual{T: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewSessionClock(cfg, clk, rec.hooks()), rec, clk
}

func ticks(c *SessionClock, clk *clock.Manual, n int) {
	for i := 0; i < n; i++ {
		clk.Advance(time.Second)
		c.Tick()
	}
}

func TestBreakExpiryScenario(t *testing.T) {
	t.Parallel()
	c, rec, clk := newClock(t, 25, 5, 1)
	if !c.Start() {
		t.Fatalf("start must apply")
	}
	ticks(c, clk, 10)
	if !c.TakeBreak() {
		t.Fatalf("take break must apply")
	}
	s := c.State()
	if s.SavedFocusSeconds != 1490 || s.RemainingBreakReps != 0 || s.Mode != ModeOnBreak || s.RemainingSeconds != 300 || s.AccumulatedFocusSeconds != 10 {
		t.Fatalf("unexpected state after break: %+v", s)
	}
	ticks(c, clk, 300)
	s = c.State()
	if s.Mode != ModeFocusing || s.RemainingSeconds != 1490 || s.Running {
		t.Fatalf("unexpected state after break expiry: %+v", s)
	}
	if len(s.BreakEvents) != 1 || s.BreakEvents[0].Kind != BreakCompleted || s.BreakEvents[0].DurationSeconds != 300 {
		t.Fatalf("unexpected break events: %+v", s.BreakEvents)
	}
	if got := s.BreakEvents[0].EndTime.Sub(s.BreakEvents[0].StartTime); got != 300*time.Second {
		t.Fatalf("break event spans %s", got)
	}
	if c.Tick() {
		t.Fatalf("tick must not apply while paused after break expiry")
	}
	if c.TakeBreak() {
		t.Fatalf("budget is spent")
	}
	if !c.Resume() {
		t.Fatalf("resume must apply")
	}
	ticks(c, clk, 1490)
	if c.State().Mode != ModeCompleted || len(rec.completions) != 1 {
		t.Fatalf("expected natural completion, got %+v", c.State())
	}
	done := rec.completions[0]
	if done.TotalFocusSeconds != 1500 || done.UsedBreakReps != 1 || done.Outcome != OutcomeCompleted {
		t.Fatalf("unexpected completion: %+v", done)
	}
}

func TestEndImmediatelyReportsZero(t *testing.T) {
	t.Parallel()
	c, rec, _ := newClock(t, 25, 5, 1)
	c.Start()
	if !c.EndSession() {
		t.Fatalf("end must apply")
	}
	if len(rec.completions) != 1 || rec.completions[0].TotalFocusSeconds != 0 || rec.completions[0].Outcome != OutcomeCompleted {
		t.Fatalf("unexpected completion: %+v", rec.completions)
	}
	if c.EndSession() || c.Cancel() || c.Start() || c.Resume() {
		t.Fatalf("terminal state must not transition")
	}
}

func TestCancelThreshold(t *testing.T) {
	t.Parallel()
	cases := []struct {
		elapsed int
		want    Outcome
	}{
		{elapsed: 0, want: OutcomeDiscarded},
		{elapsed: 599, want: OutcomeDiscarded},
		{elapsed: 600, want: OutcomeCancelledKept},
		{elapsed: 1200, want: OutcomeCancelledKept},
	}
	for _, tc := range cases {
		c, rec, clk := newClock(t, 25, 5, 1)
		c.Start()
		ticks(c, clk, tc.elapsed)
		if !c.Cancel() {
			t.Fatalf("cancel must apply")
		}
		if c.State().Mode != ModeCancelled {
			t.Fatalf("expected cancelled, got %s", c.State().Mode)
		}
		got := rec.completions[0]
		if got.Outcome != tc.want || got.TotalFocusSeconds != tc.elapsed {
			t.Fatalf("elapsed %d: unexpected completion %+v", tc.elapsed, got)
		}
	}
}

func TestSkipBreakOnlyImmediately(t *testing.T) {
	t.Parallel()
	c, _, clk := newClock(t, 25, 5, 2)
	c.Start()
	ticks(c, clk, 60)
	c.TakeBreak()
	if !c.SkipBreak() {
		t.Fatalf("skip must apply right after the break starts")
	}
	s := c.State()
	if s.Mode != ModeFocusing || !s.Running || s.RemainingSeconds != 1440 {
		t.Fatalf("unexpected state after skip: %+v", s)
	}
	event := s.BreakEvents[0]
	if event.Kind != BreakSkipped || event.DurationSeconds != 0 || event.FocusSecondsBeforeBreak != 1440 {
		t.Fatalf("unexpected skip event: %+v", event)
	}

	ticks(c, clk, 40)
	c.TakeBreak()
	ticks(c, clk, 1)
	if c.SkipBreak() {
		t.Fatalf("skip must not apply after a break second elapsed")
	}
	if s := c.State(); s.UsedBreakReps != 2 || s.RemainingBreakReps != 0 || s.AccumulatedFocusSeconds != 100 {
		t.Fatalf("unexpected accounting: %+v", s)
	}
}

func TestBackToFocusRequiresPausedBreak(t *testing.T) {
	t.Parallel()
	c, rec, clk := newClock(t, 25, 5, 1)
	c.Start()
	ticks(c, clk, 100)
	c.TakeBreak()
	ticks(c, clk, 45)
	if c.BackToFocus() {
		t.Fatalf("back to focus must not apply while the break runs")
	}
	c.Pause()
	if !c.BackToFocus() {
		t.Fatalf("back to focus must apply on a paused break")
	}
	s := c.State()
	if s.Mode != ModeFocusing || !s.Running || s.RemainingSeconds != 1400 {
		t.Fatalf("unexpected state: %+v", s)
	}
	if len(s.BreakEvents) != 1 || s.BreakEvents[0].DurationSeconds != 45 || s.BreakEvents[0].Kind != BreakCompleted {
		t.Fatalf("unexpected events: %+v", s.BreakEvents)
	}
	ticks(c, clk, 50)
	c.EndSession()
	if got := rec.completions[0].TotalFocusSeconds; got != 150 {
		t.Fatalf("expected 150 focus seconds without double counting, got %d", got)
	}
}

func TestGuardedNoOps(t *testing.T) {
	t.Parallel()
	c, rec, _ := newClock(t, 25, 0, 3)
	if c.Tick() || c.Pause() || c.Resume() || c.TakeBreak() || c.SkipBreak() || c.BackToFocus() {
		t.Fatalf("idle clock must ignore these operations")
	}
	c.Start()
	if c.Start() {
		t.Fatalf("start is only legal from idle")
	}
	if c.TakeBreak() {
		t.Fatalf("zero-length breaks cannot be taken")
	}
	if c.Resume() {
		t.Fatalf("resume requires a paused clock")
	}
	changes := rec.changes
	c.Pause()
	if c.Tick() {
		t.Fatalf("paused clock must not tick")
	}
	if rec.changes != changes+1 {
		t.Fatalf("only applied operations notify, got %d changes", rec.changes-changes)
	}
}

func TestCancelDuringBreakClosesIt(t *testing.T) {
	t.Parallel()
	c, rec, clk := newClock(t, 25, 5, 1)
	c.Start()
	ticks(c, clk, 700)
	c.TakeBreak()
	ticks(c, clk, 20)
	c.Cancel()
	done := rec.completions[0]
	if done.Outcome != OutcomeCancelledKept || done.TotalFocusSeconds != 700 {
		t.Fatalf("unexpected completion: %+v", done)
	}
	if len(done.BreakEvents) != 1 || done.BreakEvents[0].DurationSeconds != 20 {
		t.Fatalf("open break must be closed once: %+v", done.BreakEvents)
	}
}

func TestRehydrateResumesCounters(t *testing.T) {
	t.Parallel()
	c, _, clk := newClock(t, 25, 5, 1)
	c.Start()
	ticks(c, clk, 30)
	c.TakeBreak()
	ticks(c, clk, 10)
	saved := c.State()

	rec := &recorder{}
	restored, err := Rehydrate(c.Config(), saved, clk, rec.hooks())
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	ticks(restored, clk, 290)
	s := restored.State()
	if s.Mode != ModeFocusing || s.RemainingSeconds != 1470 || s.AccumulatedFocusSeconds != 30 || len(s.BreakEvents) != 1 {
		t.Fatalf("unexpected rehydrated state: %+v", s)
	}
	if _, err := Rehydrate(c.Config(), State{Mode: ModeCompleted}, clk, Hooks{}); err == nil {
		t.Fatalf("terminal snapshots must not rehydrate")
	}
}
