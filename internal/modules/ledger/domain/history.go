package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "streakd/internal/platform/errors"
)

// ConfirmToken must accompany every end request.
const ConfirmToken = "END"

const SchemaVersion = 1

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type BreakKind string

const (
	BreakCompleted BreakKind = "completed"
	BreakSkipped   BreakKind = "skipped"
)

func ParseBreakKind(raw string) (BreakKind, error) {
	switch BreakKind(strings.ToLower(strings.TrimSpace(raw))) {
	case BreakCompleted:
		return BreakCompleted, nil
	case BreakSkipped:
		return BreakSkipped, nil
	default:
		return "", fmt.Errorf("%w: unsupported break kind %q", apperrors.ErrInvalidInput, raw)
	}
}

// BreakEvent is client-reported and stored without verification.
type BreakEvent struct {
	StartTime               time.Time  `json:"start_time"`
	EndTime                 *time.Time `json:"end_time,omitempty"`
	DurationSeconds         int        `json:"duration_seconds"`
	FocusSecondsBeforeBreak int        `json:"focus_seconds_before_break"`
	Kind                    BreakKind  `json:"kind"`
}

// Report is what the client believes happened during the run.
type Report struct {
	FocusSeconds  int
	UsedBreakReps int
	BreakEvents   []BreakEvent
}

// Normalize checks the report and returns a copy with canonical break kinds.
func (r Report) Normalize() (Report, error) {
	if r.FocusSeconds < 0 {
		return Report{}, fmt.Errorf("%w: focus seconds must be non-negative", apperrors.ErrInvalidInput)
	}
	if r.UsedBreakReps < 0 {
		return Report{}, fmt.Errorf("%w: used break reps must be non-negative", apperrors.ErrInvalidInput)
	}
	events := make([]BreakEvent, 0, len(r.BreakEvents))
	for i, event := range r.BreakEvents {
		if event.DurationSeconds < 0 || event.FocusSecondsBeforeBreak < 0 {
			return Report{}, fmt.Errorf("%w: break event %d has negative seconds", apperrors.ErrInvalidInput, i)
		}
		kind, err := ParseBreakKind(string(event.Kind))
		if err != nil {
			return Report{}, err
		}
		event.Kind = kind
		events = append(events, event)
	}
	r.BreakEvents = events
	return r, nil
}

type HistoryRecord struct {
	ID                 string
	StreakID           string
	StartTime          time.Time
	EndTime            *time.Time
	Status             Status
	DurationMinutes    int
	Description        string
	PhotoURL           string
	Verified           bool
	ClientFocusMinutes *int
	UsedBreakReps      int
	BreakEvents        []BreakEvent
}

func NewOpenRecord(id, streakID string, now time.Time) HistoryRecord {
	return HistoryRecord{ID: id, StreakID: streakID, StartTime: now, Status: StatusOpen, BreakEvents: []BreakEvent{}}
}

func (r HistoryRecord) IsOpen() bool {
	return r.Status == StatusOpen
}

// Close stamps the record with the server time. The duration never depends
// on the client report.
func (r HistoryRecord) Close(now time.Time, report *Report) (HistoryRecord, error) {
	if !r.IsOpen() {
		return HistoryRecord{}, fmt.Errorf("history %s: %w", r.ID, apperrors.ErrNoOpenSession)
	}
	end := now
	r.EndTime = &end
	r.Status = StatusClosed
	r.DurationMinutes = RoundMinutes(now.Sub(r.StartTime))
	if report != nil {
		minutes := SecondsToMinutes(report.FocusSeconds)
		r.ClientFocusMinutes = &minutes
		r.UsedBreakReps = report.UsedBreakReps
		r.BreakEvents = append([]BreakEvent{}, report.BreakEvents...)
	}
	return r, nil
}

// RoundMinutes rounds a millisecond duration to the nearest whole minute.
func RoundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(float64(d.Milliseconds()) / 60000))
}

func SecondsToMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(float64(seconds) / 60))
}
