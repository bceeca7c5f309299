package domain

import (
	"fmt"
	"time"

	"streakd/internal/platform/clock"
)

type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeFocusing  Mode = "focusing"
	ModeOnBreak   Mode = "on_break"
	ModeCompleted Mode = "completed"
	ModeCancelled Mode = "cancelled"
)

func (m Mode) Terminal() bool {
	return m == ModeCompleted || m == ModeCancelled
}

type BreakKind string

const (
	BreakCompleted BreakKind = "completed"
	BreakSkipped   BreakKind = "skipped"
)

type BreakEvent struct {
	StartTime               time.Time  `json:"start_time"`
	EndTime                 *time.Time `json:"end_time,omitempty"`
	DurationSeconds         int        `json:"duration_seconds"`
	FocusSecondsBeforeBreak int        `json:"focus_seconds_before_break"`
	Kind                    BreakKind  `json:"kind"`
}

type Outcome string

const (
	OutcomeCompleted     Outcome = "completed"
	OutcomeCancelledKept Outcome = "cancelled_kept"
	OutcomeDiscarded     Outcome = "discarded"
)

// DiscardThresholdSeconds is the focus time below which a cancel throws the
// run away.
const DiscardThresholdSeconds = 600

type Completion struct {
	TotalFocusSeconds int
	UsedBreakReps     int
	BreakEvents       []BreakEvent
	Outcome           Outcome
}

// State is the mutable part of a run. All counters are whole seconds.
type State struct {
	Mode                    Mode         `json:"mode"`
	Running                 bool         `json:"running"`
	RemainingSeconds        int          `json:"remaining_seconds"`
	SavedFocusSeconds       int          `json:"saved_focus_seconds"`
	SegmentStartSeconds     int          `json:"segment_start_seconds"`
	AccumulatedFocusSeconds int          `json:"accumulated_focus_seconds"`
	RemainingBreakReps      int          `json:"remaining_break_reps"`
	UsedBreakReps           int          `json:"used_break_reps"`
	BreakEvents             []BreakEvent `json:"break_events"`
	BreakStartedAt          time.Time    `json:"break_started_at,omitempty"`
}

type Hooks struct {
	OnChange   func(State)
	OnTerminal func(Completion)
}

// SessionClock is the focus/break state machine for a single run. It is not
// safe for concurrent use; one tick source drives it.
type SessionClock struct {
	config SessionConfig
	clock  clock.Clock
	state  State
	hooks  Hooks
}

func NewSessionClock(config SessionConfig, clk clock.Clock, hooks Hooks) *SessionClock {
	return &SessionClock{
		config: config,
		clock:  clk,
		hooks:  hooks,
		state: State{
			Mode:               ModeIdle,
			RemainingSeconds:   config.FocusSeconds,
			RemainingBreakReps: config.BreakRepetitionBudget,
			BreakEvents:        []BreakEvent{},
		},
	}
}

// Rehydrate resumes a run from a persisted state instead of Idle.
func Rehydrate(config SessionConfig, state State, clk clock.Clock, hooks Hooks) (*SessionClock, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch state.Mode {
	case ModeIdle, ModeFocusing, ModeOnBreak:
	default:
		return nil, fmt.Errorf("cannot rehydrate a run in mode %q", state.Mode)
	}
	if state.RemainingSeconds < 0 || state.RemainingBreakReps < 0 || state.AccumulatedFocusSeconds < 0 {
		return nil, fmt.Errorf("cannot rehydrate a run with negative counters")
	}
	if state.BreakEvents == nil {
		state.BreakEvents = []BreakEvent{}
	}
	return &SessionClock{config: config, clock: clk, state: state, hooks: hooks}, nil
}

func (c *SessionClock) Config() SessionConfig {
	return c.config
}

// State returns a copy of the current state.
func (c *SessionClock) State() State {
	out := c.state
	out.BreakEvents = append([]BreakEvent{}, c.state.BreakEvents...)
	return out
}

// TotalFocusSeconds counts finished segments plus the one in progress.
func (c *SessionClock) TotalFocusSeconds() int {
	total := c.state.AccumulatedFocusSeconds
	if c.state.Mode == ModeFocusing {
		total += c.state.SegmentStartSeconds - c.state.RemainingSeconds
	}
	return total
}

func (c *SessionClock) Start() bool {
	if c.state.Mode != ModeIdle {
		return false
	}
	c.state.Mode = ModeFocusing
	c.state.RemainingSeconds = c.config.FocusSeconds
	c.state.SegmentStartSeconds = c.config.FocusSeconds
	c.state.Running = true
	c.changed()
	return true
}

// Tick advances one elapsed second.
func (c *SessionClock) Tick() bool {
	if !c.state.Running {
		return false
	}
	switch c.state.Mode {
	case ModeFocusing:
		c.state.RemainingSeconds--
		if c.state.RemainingSeconds <= 0 {
			c.state.RemainingSeconds = 0
			c.state.AccumulatedFocusSeconds += c.state.SegmentStartSeconds
			c.terminate(ModeCompleted, OutcomeCompleted, c.state.AccumulatedFocusSeconds)
			return true
		}
	case ModeOnBreak:
		c.state.RemainingSeconds--
		if c.state.RemainingSeconds <= 0 {
			c.closeBreak(BreakCompleted, c.config.BreakSeconds)
			c.state.Running = false
		}
	default:
		return false
	}
	c.changed()
	return true
}

func (c *SessionClock) Pause() bool {
	if !c.active() || !c.state.Running {
		return false
	}
	c.state.Running = false
	c.changed()
	return true
}

func (c *SessionClock) Resume() bool {
	if !c.active() || c.state.Running {
		return false
	}
	c.state.Running = true
	c.changed()
	return true
}

func (c *SessionClock) TakeBreak() bool {
	if c.state.Mode != ModeFocusing || !c.state.Running || c.state.RemainingBreakReps <= 0 || c.config.BreakSeconds <= 0 {
		return false
	}
	c.state.AccumulatedFocusSeconds += c.state.SegmentStartSeconds - c.state.RemainingSeconds
	c.state.SavedFocusSeconds = c.state.RemainingSeconds
	c.state.RemainingBreakReps--
	c.state.UsedBreakReps++
	c.state.Mode = ModeOnBreak
	c.state.RemainingSeconds = c.config.BreakSeconds
	c.state.BreakStartedAt = c.clock.Now()
	c.state.Running = true
	c.changed()
	return true
}

// SkipBreak is only legal before the first break second has elapsed.
func (c *SessionClock) SkipBreak() bool {
	if c.state.Mode != ModeOnBreak || !c.state.Running || c.state.RemainingSeconds != c.config.BreakSeconds {
		return false
	}
	c.closeBreak(BreakSkipped, 0)
	c.state.Running = true
	c.changed()
	return true
}

// BackToFocus ends a paused break early.
func (c *SessionClock) BackToFocus() bool {
	if c.state.Mode != ModeOnBreak || c.state.Running {
		return false
	}
	c.closeBreak(BreakCompleted, c.config.BreakSeconds-c.state.RemainingSeconds)
	c.state.Running = true
	c.changed()
	return true
}

// Cancel keeps the run when at least DiscardThresholdSeconds of focus were
// done and discards it otherwise.
func (c *SessionClock) Cancel() bool {
	if c.state.Mode.Terminal() {
		return false
	}
	total := c.TotalFocusSeconds()
	outcome := OutcomeCancelledKept
	if total < DiscardThresholdSeconds {
		outcome = OutcomeDiscarded
	}
	c.endOpenBreak()
	c.terminate(ModeCancelled, outcome, total)
	return true
}

func (c *SessionClock) EndSession() bool {
	if c.state.Mode.Terminal() {
		return false
	}
	total := c.TotalFocusSeconds()
	c.endOpenBreak()
	c.terminate(ModeCompleted, OutcomeCompleted, total)
	return true
}

func (c *SessionClock) active() bool {
	return c.state.Mode == ModeFocusing || c.state.Mode == ModeOnBreak
}

// closeBreak records the break and restores the focus segment saved when it
// began.
func (c *SessionClock) closeBreak(kind BreakKind, duration int) {
	end := c.clock.Now()
	c.state.BreakEvents = append(c.state.BreakEvents, BreakEvent{
		StartTime:               c.state.BreakStartedAt,
		EndTime:                 &end,
		DurationSeconds:         duration,
		FocusSecondsBeforeBreak: c.state.SavedFocusSeconds,
		Kind:                    kind,
	})
	c.state.Mode = ModeFocusing
	c.state.RemainingSeconds = c.state.SavedFocusSeconds
	c.state.SegmentStartSeconds = c.state.SavedFocusSeconds
	c.state.BreakStartedAt = time.Time{}
}

func (c *SessionClock) endOpenBreak() {
	if c.state.Mode != ModeOnBreak {
		return
	}
	c.closeBreak(BreakCompleted, c.config.BreakSeconds-c.state.RemainingSeconds)
	// The restored segment has not been worked on.
	c.state.RemainingSeconds = c.state.SegmentStartSeconds
}

func (c *SessionClock) terminate(mode Mode, outcome Outcome, total int) {
	c.state.Mode = mode
	c.state.Running = false
	if c.hooks.OnTerminal != nil {
		c.hooks.OnTerminal(Completion{
			TotalFocusSeconds: total,
			UsedBreakReps:     c.state.UsedBreakReps,
			BreakEvents:       append([]BreakEvent{}, c.state.BreakEvents...),
			Outcome:           outcome,
		})
	}
}

func (c *SessionClock) changed() {
	if c.hooks.OnChange != nil {
		c.hooks.OnChange(c.State())
	}
}
