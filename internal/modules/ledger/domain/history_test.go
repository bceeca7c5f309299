package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "streakd/internal/platform/errors"
)

func TestRoundMinutes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   time.Duration
		want int
	}{
		{0, 0},
		{-time.Minute, 0},
		{29 * time.Second, 0},
		{30 * time.Second, 1},
		{89*time.Second + 999*time.Millisecond, 1},
		{90 * time.Second, 2},
		{25 * time.Minute, 25},
	}
	for _, tc := range cases {
		if got := RoundMinutes(tc.in); got != tc.want {
			t.Fatalf("RoundMinutes(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := SecondsToMinutes(1490); got != 25 {
		t.Fatalf("SecondsToMinutes(1490) = %d", got)
	}
}

func TestCloseUsesServerClockOnly(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	record := NewOpenRecord("h1", "s1", start)
	closed, err := record.Close(start.Add(24*time.Minute+31*time.Second), &Report{FocusSeconds: 6000, UsedBreakReps: 1})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.DurationMinutes != 25 || closed.Status != StatusClosed || closed.EndTime == nil {
		t.Fatalf("unexpected closed record: %+v", closed)
	}
	if closed.ClientFocusMinutes == nil || *closed.ClientFocusMinutes != 100 {
		t.Fatalf("client report must be stored as-is: %+v", closed.ClientFocusMinutes)
	}
	if _, err := closed.Close(start, nil); !errors.Is(err, apperrors.ErrNoOpenSession) {
		t.Fatalf("expected no open session, got %v", err)
	}
}

func TestParseBreakKindAndReport(t *testing.T) {
	t.Parallel()
	if kind, err := ParseBreakKind(" Skipped "); err != nil || kind != BreakSkipped {
		t.Fatalf("unexpected parse: %q %v", kind, err)
	}
	if _, err := ParseBreakKind("nap"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := (Report{FocusSeconds: -1}).Normalize(); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := (Report{BreakEvents: []BreakEvent{{Kind: "nap"}}}).Normalize(); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected validation error for break kind, got %v", err)
	}
	report, err := (Report{BreakEvents: []BreakEvent{{Kind: " Completed "}}}).Normalize()
	if err != nil || report.BreakEvents[0].Kind != BreakCompleted {
		t.Fatalf("unexpected normalized report: %+v %v", report, err)
	}
}
