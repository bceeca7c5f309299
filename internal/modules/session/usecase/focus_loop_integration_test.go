package usecase_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ledgerout "streakd/internal/modules/ledger/adapter/out"
	ledgerdto "streakd/internal/modules/ledger/dto"
	ledgerservice "streakd/internal/modules/ledger/service"
	ledgerusecase "streakd/internal/modules/ledger/usecase"
	sessionout "streakd/internal/modules/session/adapter/out"
	sessiondto "streakd/internal/modules/session/dto"
	"streakd/internal/modules/session/service"
	"streakd/internal/modules/session/usecase"
	streakout "streakd/internal/modules/streak/adapter/out"
	streakdto "streakd/internal/modules/streak/dto"
	streakservice "streakd/internal/modules/streak/service"
	streakusecase "streakd/internal/modules/streak/usecase"
	"streakd/internal/platform/clock"
	"streakd/internal/platform/id"
	"streakd/internal/platform/sqlitedb"
)

func TestFocusLoopEndToEnd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	db, err := sqlitedb.Open(filepath.Join(dir, ".streakd", "streakd.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	clk := &clock.Manual{T: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	txm := sqlitedb.NewTxManager(db)

	history, err := ledgerout.NewSQLiteHistoryStore(db)
	if err != nil {
		t.Fatalf("history store: %v", err)
	}
	streaks, err := streakout.NewSQLiteStreakStore(db)
	if err != nil {
		t.Fatalf("streak store: %v", err)
	}
	categories, err := streakout.NewSQLiteCategoryStore(db)
	if err != nil {
		t.Fatalf("category store: %v", err)
	}
	streakUC := streakusecase.NewInteractor(streakservice.NewStreakService(clk, id.UUID{}, streaks, categories, txm, history), nil, nil)
	ledgerUC := ledgerusecase.NewInteractor(
		ledgerservice.NewLedgerService(clk, id.UUID{}, history, ledgerout.NewStreakAccess(streakUC), txm),
		ledgerout.NewJournalNoteStore(filepath.Join(dir, "journal")),
		nil,
	)
	engine := usecase.NewInteractor(
		service.NewSessionService(clk),
		sessionout.NewLocalStreakReader(streakUC),
		sessionout.NewLocalLedgerGateway(ledgerUC),
		sessionout.NewFileSnapshotStore(filepath.Join(dir, ".streakd", "snapshots")),
		nil,
	)

	ctx := context.Background()
	category, err := streakUC.CreateCategory(ctx, streakdto.CreateCategoryInput{OwnerID: "u1", Name: "Study"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	focus, brk := 1, 1
	created, err := streakUC.CreateStreak(ctx, streakdto.CreateStreakInput{OwnerID: "u1", Title: "Flashcards", CategoryID: category.ID, FocusMinutes: &focus, BreakMinutes: &brk})
	if err != nil {
		t.Fatalf("create streak: %v", err)
	}
	key := sessiondto.RunKey{UserID: "u1", StreakID: created.Streak.ID}

	if _, err := engine.Open(ctx, key); err != nil {
		t.Fatalf("open run: %v", err)
	}
	step := func(op sessiondto.Operation) sessiondto.ApplyOutput {
		t.Helper()
		if op == sessiondto.OpTick {
			clk.Advance(time.Second)
		}
		out, err := engine.Apply(ctx, sessiondto.ApplyInput{Key: key, Op: op})
		if err != nil {
			t.Fatalf("apply %s: %v", op, err)
		}
		return out
	}
	for i := 0; i < 20; i++ {
		step(sessiondto.OpTick)
	}
	step(sessiondto.OpTakeBreak)
	if out := step(sessiondto.OpSkipBreak); !out.Applied {
		t.Fatalf("skip must apply right after the break starts")
	}
	var last sessiondto.ApplyOutput
	for i := 0; i < 40; i++ {
		last = step(sessiondto.OpTick)
	}
	if last.View.Outcome != "completed" || last.View.RecordedDurationMinutes == nil || *last.View.RecordedDurationMinutes != 1 {
		t.Fatalf("expected natural completion recorded as 1 minute, got %+v", last.View)
	}

	page, err := ledgerUC.ListHistory(ctx, ledgerdto.ListHistoryInput{CallerID: "u1", StreakID: key.StreakID})
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected one history record, got %d", page.Total)
	}
	record := page.Data[0]
	if record.Status != "closed" || record.UsedBreakReps != 1 || len(record.BreakEvents) != 1 || record.BreakEvents[0].Kind != "skipped" || record.BreakEvents[0].DurationSeconds != 0 {
		t.Fatalf("unexpected record: %+v", record)
	}

	if err := streakUC.DeleteStreak(ctx, "u1", key.StreakID); err != nil {
		t.Fatalf("delete streak: %v", err)
	}
	if _, err := ledgerUC.ListHistory(ctx, ledgerdto.ListHistoryInput{CallerID: "u1", StreakID: key.StreakID}); err == nil {
		t.Fatalf("history must be gone with the streak")
	}
	var remaining int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&remaining); err != nil {
		t.Fatalf("count history: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("cascade left %d history rows", remaining)
	}
}
