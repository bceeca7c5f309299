package dto

import "time"

type OpenInput struct {
	CallerID string
	StreakID string
}

type SessionOutput struct {
	HistoryID string    `json:"historyId"`
	StreakID  string    `json:"streakId"`
	StartTime time.Time `json:"startTime"`
	Resumed   bool      `json:"resumed"`
}

type BreakEvent struct {
	StartTime               time.Time  `json:"startTime"`
	EndTime                 *time.Time `json:"endTime,omitempty"`
	DurationSeconds         int        `json:"durationSeconds"`
	FocusSecondsBeforeBreak int        `json:"focusSecondsBeforeBreak"`
	Kind                    string     `json:"kind"`
}

// SessionReport is the client's own accounting of a finished run.
type SessionReport struct {
	FocusSeconds  int          `json:"focusSeconds"`
	UsedBreakReps int          `json:"usedBreakReps"`
	BreakEvents   []BreakEvent `json:"breakEvents"`
}

type EndInput struct {
	CallerID string
	StreakID string
	Confirm  string
	Report   *SessionReport
}

type EndOutput struct {
	HistoryID       string `json:"historyId"`
	DurationMinutes int    `json:"durationMinutes"`
}

type DiscardInput struct {
	CallerID string
	StreakID string
}

type ListHistoryInput struct {
	CallerID string
	StreakID string
	Page     int
	Limit    int
}

type HistoryOutput struct {
	ID                 string       `json:"id"`
	StreakID           string       `json:"streakId"`
	StartTime          time.Time    `json:"startTime"`
	EndTime            *time.Time   `json:"endTime"`
	Status             string       `json:"status"`
	DurationMinutes    int          `json:"durationMinutes"`
	Description        string       `json:"description,omitempty"`
	PhotoURL           string       `json:"photoUrl,omitempty"`
	Verified           bool         `json:"verified"`
	ClientFocusMinutes *int         `json:"clientFocusMinutes,omitempty"`
	UsedBreakReps      int          `json:"usedBreakReps"`
	BreakEvents        []BreakEvent `json:"breakEvents"`
}

type HistoryPage struct {
	Data  []HistoryOutput `json:"data"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type SubmitInput struct {
	CallerID    string
	StreakID    string
	HistoryID   string
	Description string
	PhotoURL    string
}

type GetHistoryInput struct {
	CallerID  string
	StreakID  string
	HistoryID string
}

type MarkVerifiedInput struct {
	StreakID  string
	HistoryID string
	Verified  bool
}
