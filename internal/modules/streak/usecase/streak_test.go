package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	streakout "streakd/internal/modules/streak/adapter/out"
	"streakd/internal/modules/streak/dto"
	streakin "streakd/internal/modules/streak/port/in"
	"streakd/internal/modules/streak/service"
	"streakd/internal/modules/streak/usecase"
	"streakd/internal/platform/clock"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/idempotency"
	"streakd/internal/platform/sqlitedb"
)

type seqIDs struct{ n int }

func (g *seqIDs) New() string {
	g.n++
	return "id-" + strconv.Itoa(g.n)
}

type recordingPurger struct {
	calls []string
	err   error
}

func (p *recordingPurger) PurgeStreak(_ context.Context, streakID string) error {
	p.calls = append(p.calls, streakID)
	return p.err
}

type fixture struct {
	uc     streakin.Usecase
	clock  *clock.Manual
	purger *recordingPurger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "streakd.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	streaks, err := streakout.NewSQLiteStreakStore(db)
	if err != nil {
		t.Fatalf("streak store: %v", err)
	}
	categories, err := streakout.NewSQLiteCategoryStore(db)
	if err != nil {
		t.Fatalf("category store: %v", err)
	}
	clk := &clock.Manual{T: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	purger := &recordingPurger{}
	svc := service.NewStreakService(clk, &seqIDs{}, streaks, categories, sqlitedb.NewTxManager(db), purger)
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(clk), 5*time.Minute, clk, nil)
	return fixture{uc: usecase.NewInteractor(svc, guard, nil), clock: clk, purger: purger}
}

func TestCreateStreakAppliesDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	category, err := f.uc.CreateCategory(ctx, dto.CreateCategoryInput{OwnerID: "u1", Name: "Reading"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	out, err := f.uc.CreateStreak(ctx, dto.CreateStreakInput{OwnerID: "u1", Title: "Daily pages", CategoryID: category.ID})
	if err != nil {
		t.Fatalf("create streak: %v", err)
	}
	got := out.Streak
	if got.FocusMinutes != 25 || got.BreakMinutes != 5 || got.BreakRepetitionBudget != 1 || got.Difficulty != "medium" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	loaded, err := f.uc.GetStreak(ctx, "u1", got.ID)
	if err != nil {
		t.Fatalf("get streak: %v", err)
	}
	if loaded.Title != "Daily pages" || !loaded.CreatedAt.Equal(f.clock.T) {
		t.Fatalf("unexpected stored streak: %+v", loaded)
	}
}

func TestCreateStreakReplaysIdempotencyKey(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	category, err := f.uc.CreateCategory(ctx, dto.CreateCategoryInput{OwnerID: "u1", Name: "Reading"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	input := dto.CreateStreakInput{OwnerID: "u1", Title: "Daily pages", CategoryID: category.ID, IdempotencyKey: "k-1"}
	first, err := f.uc.CreateStreak(ctx, input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	f.clock.Advance(time.Minute)
	second, err := f.uc.CreateStreak(ctx, input)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !second.Replayed || string(first.Payload) != string(second.Payload) {
		t.Fatalf("expected byte-identical replay, got %s vs %s", first.Payload, second.Payload)
	}
	list, err := f.uc.ListStreaks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one stored streak, got %d", len(list))
	}
}

func TestCreateStreakRejectsMissingOrForeignCategory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	foreign, err := f.uc.CreateCategory(ctx, dto.CreateCategoryInput{OwnerID: "u2", Name: "Other"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	for _, categoryID := range []string{"missing", foreign.ID} {
		_, err := f.uc.CreateStreak(ctx, dto.CreateStreakInput{OwnerID: "u1", Title: "x", CategoryID: categoryID, IdempotencyKey: "k"})
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("category %s: expected not found, got %v", categoryID, err)
		}
	}
	list, err := f.uc.ListStreaks(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("no streak may be written, got %d", len(list))
	}
}

func TestCreateStreakValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	category, err := f.uc.CreateCategory(ctx, dto.CreateCategoryInput{OwnerID: "u1", Name: "Reading"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	zero, negative := 0, -1
	cases := []struct {
		name  string
		input dto.CreateStreakInput
	}{
		{name: "blank title", input: dto.CreateStreakInput{Title: " ", CategoryID: category.ID}},
		{name: "zero focus", input: dto.CreateStreakInput{Title: "t", CategoryID: category.ID, FocusMinutes: &zero}},
		{name: "negative budget", input: dto.CreateStreakInput{Title: "t", CategoryID: category.ID, BreakRepetitionBudget: &negative}},
		{name: "bad difficulty", input: dto.CreateStreakInput{Title: "t", CategoryID: category.ID, Difficulty: "extreme"}},
	}
	for _, tc := range cases {
		tc.input.OwnerID = "u1"
		if _, err := f.uc.CreateStreak(ctx, tc.input); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestOwnershipAndDeleteCascade(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	category, err := f.uc.CreateCategory(ctx, dto.CreateCategoryInput{OwnerID: "u1", Name: "Reading"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	created, err := f.uc.CreateStreak(ctx, dto.CreateStreakInput{OwnerID: "u1", Title: "Daily pages", CategoryID: category.ID})
	if err != nil {
		t.Fatalf("create streak: %v", err)
	}
	id := created.Streak.ID

	if _, err := f.uc.GetStreak(ctx, "u2", id); !errors.Is(err, apperrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	focus := 50
	updated, err := f.uc.UpdateSettings(ctx, dto.UpdateSettingsInput{CallerID: "u1", StreakID: id, FocusMinutes: &focus})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.FocusMinutes != 50 || updated.BreakMinutes != 5 {
		t.Fatalf("unexpected settings: %+v", updated)
	}

	f.purger.err = errors.New("purge failed")
	if err := f.uc.DeleteStreak(ctx, "u1", id); err == nil {
		t.Fatalf("expected purge failure to abort delete")
	}
	if _, err := f.uc.GetStreak(ctx, "u1", id); err != nil {
		t.Fatalf("streak must survive rolled back delete: %v", err)
	}

	f.purger.err = nil
	if err := f.uc.DeleteStreak(ctx, "u1", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.uc.GetStreak(ctx, "u1", id); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if len(f.purger.calls) != 2 || f.purger.calls[1] != id {
		t.Fatalf("unexpected purge calls: %v", f.purger.calls)
	}
}
