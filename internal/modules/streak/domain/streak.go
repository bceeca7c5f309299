package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "streakd/internal/platform/errors"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
	DefaultBreakBudget  = 1
	MaxFocusMinutes     = 24 * 60
)

// ParseDifficulty resolves loosely cased input once, at the boundary.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return DifficultyMedium, nil
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: unsupported difficulty %q", apperrors.ErrInvalidInput, raw)
	}
}

// Timing holds the fields a session run captures at start.
type Timing struct {
	FocusMinutes          int
	BreakMinutes          int
	BreakRepetitionBudget int
}

func (t Timing) Validate() error {
	if t.FocusMinutes < 1 || t.FocusMinutes > MaxFocusMinutes {
		return fmt.Errorf("%w: focus minutes must be between 1 and %d", apperrors.ErrInvalidInput, MaxFocusMinutes)
	}
	if t.BreakMinutes < 0 || t.BreakMinutes > MaxFocusMinutes {
		return fmt.Errorf("%w: break minutes must be between 0 and %d", apperrors.ErrInvalidInput, MaxFocusMinutes)
	}
	if t.BreakRepetitionBudget < 0 {
		return fmt.Errorf("%w: break repetition budget must be non-negative", apperrors.ErrInvalidInput)
	}
	return nil
}

type Streak struct {
	ID            string
	OwnerID       string
	Title         string
	CategoryID    string
	SubcategoryID string
	Timing        Timing
	Difficulty    Difficulty
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s Streak) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: id is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(s.OwnerID) == "" {
		return fmt.Errorf("%w: owner is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(s.CategoryID) == "" {
		return fmt.Errorf("%w: category is required", apperrors.ErrInvalidInput)
	}
	if _, err := ParseDifficulty(string(s.Difficulty)); err != nil {
		return err
	}
	return s.Timing.Validate()
}

// OwnedBy reports whether callerID owns the streak.
func (s Streak) OwnedBy(callerID string) bool {
	return callerID != "" && s.OwnerID == callerID
}

type Category struct {
	ID        string
	OwnerID   string
	Name      string
	ParentID  string
	CreatedAt time.Time
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" || strings.TrimSpace(c.OwnerID) == "" {
		return fmt.Errorf("%w: category id and owner are required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", apperrors.ErrInvalidInput)
	}
	return nil
}
