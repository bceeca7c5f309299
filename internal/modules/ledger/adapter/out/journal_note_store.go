package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"streakd/internal/modules/ledger/domain"
	ledgerout "streakd/internal/modules/ledger/port/out"
	"streakd/internal/platform/markdown"
	"streakd/internal/platform/slug"
)

// JournalNoteStore renders closed records as dated markdown notes.
type JournalNoteStore struct {
	dir string
}

func NewJournalNoteStore(dir string) ledgerout.JournalWriter {
	return &JournalNoteStore{dir: dir}
}

type journalMeta struct {
	SchemaVersion      int    `yaml:"schema_version"`
	ID                 string `yaml:"id"`
	StreakID           string `yaml:"streak_id"`
	Streak             string `yaml:"streak"`
	StartedAt          string `yaml:"started_at"`
	EndedAt            string `yaml:"ended_at,omitempty"`
	DurationMinutes    int    `yaml:"duration_minutes"`
	ClientFocusMinutes *int   `yaml:"client_focus_minutes,omitempty"`
	UsedBreakReps      int    `yaml:"used_break_reps"`
	Breaks             int    `yaml:"breaks"`
	Verified           bool   `yaml:"verified"`
	PhotoURL           string `yaml:"photo_url,omitempty"`
}

func (s *JournalNoteStore) Write(_ context.Context, note ledgerout.JournalNote) (string, error) {
	record := note.Record
	date := record.StartTime.UTC()
	dir := filepath.Join(s.dir, date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create journal dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s-%s.md", date.Format("150405"), slug.Make(note.StreakTitle), shortID(record.ID))
	path := filepath.Join(dir, name)

	meta := journalMeta{
		SchemaVersion:      domain.SchemaVersion,
		ID:                 record.ID,
		StreakID:           record.StreakID,
		Streak:             note.StreakTitle,
		StartedAt:          record.StartTime.UTC().Format(time.RFC3339),
		DurationMinutes:    record.DurationMinutes,
		ClientFocusMinutes: record.ClientFocusMinutes,
		UsedBreakReps:      record.UsedBreakReps,
		Breaks:             len(record.BreakEvents),
		Verified:           record.Verified,
		PhotoURL:           record.PhotoURL,
	}
	if record.EndTime != nil {
		meta.EndedAt = record.EndTime.UTC().Format(time.RFC3339)
	}
	rendered, err := markdown.RenderFrontmatter(meta, renderBody(note))
	if err != nil {
		return "", err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write journal note: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replace journal note: %w", err)
	}
	return path, nil
}

func renderBody(note ledgerout.JournalNote) string {
	record := note.Record
	body := fmt.Sprintf("# %s\n\n- Duration: %d minutes\n- Breaks taken: %d\n", note.StreakTitle, record.DurationMinutes, record.UsedBreakReps)
	for _, event := range record.BreakEvents {
		body += fmt.Sprintf("  - %s break, %ds after %ds of focus left\n", event.Kind, event.DurationSeconds, event.FocusSecondsBeforeBreak)
	}
	if record.Description != "" {
		body += "\n## Notes\n\n" + record.Description + "\n"
	}
	return body
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
