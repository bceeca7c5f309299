package domain

import (
	"errors"
	"time"
)

// ErrUnreadableSnapshot marks a recovery file that cannot be turned back
// into a run.
var ErrUnreadableSnapshot = errors.New("unreadable snapshot")

type UIPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot is the recovery record of a non-terminal run, one per
// (user, streak).
type Snapshot struct {
	UserID     string        `json:"user_id"`
	StreakID   string        `json:"streak_id"`
	HistoryID  string        `json:"history_id"`
	Title      string        `json:"title"`
	Config     SessionConfig `json:"config"`
	State      State         `json:"state"`
	UIPosition UIPosition    `json:"ui_position"`
	SavedAt    time.Time     `json:"saved_at"`
}
