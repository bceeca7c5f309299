package domain

import (
	"fmt"

	apperrors "streakd/internal/platform/errors"
)

// SessionConfig is captured once when a run starts. Later edits to the
// streak do not reach a run in progress.
type SessionConfig struct {
	FocusSeconds          int `json:"focus_seconds"`
	BreakSeconds          int `json:"break_seconds"`
	BreakRepetitionBudget int `json:"break_repetition_budget"`
}

func NewSessionConfig(focusMinutes, breakMinutes, budget int) (SessionConfig, error) {
	cfg := SessionConfig{
		FocusSeconds:          focusMinutes * 60,
		BreakSeconds:          breakMinutes * 60,
		BreakRepetitionBudget: budget,
	}
	return cfg, cfg.Validate()
}

func (c SessionConfig) Validate() error {
	if c.FocusSeconds < 1 {
		return fmt.Errorf("%w: focus must be at least one second", apperrors.ErrInvalidInput)
	}
	if c.BreakSeconds < 0 || c.BreakRepetitionBudget < 0 {
		return fmt.Errorf("%w: break settings must be non-negative", apperrors.ErrInvalidInput)
	}
	return nil
}
