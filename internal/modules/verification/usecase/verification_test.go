package usecase_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	ledgerout "streakd/internal/modules/ledger/adapter/out"
	ledgerdto "streakd/internal/modules/ledger/dto"
	ledgerin "streakd/internal/modules/ledger/port/in"
	ledgerservice "streakd/internal/modules/ledger/service"
	ledgerusecase "streakd/internal/modules/ledger/usecase"
	streakout "streakd/internal/modules/streak/adapter/out"
	streakdto "streakd/internal/modules/streak/dto"
	streakin "streakd/internal/modules/streak/port/in"
	streakservice "streakd/internal/modules/streak/service"
	streakusecase "streakd/internal/modules/streak/usecase"
	verificationout "streakd/internal/modules/verification/adapter/out"
	"streakd/internal/modules/verification/domain"
	"streakd/internal/modules/verification/dto"
	verificationin "streakd/internal/modules/verification/port/in"
	"streakd/internal/modules/verification/service"
	"streakd/internal/modules/verification/usecase"
	"streakd/internal/platform/clock"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/id"
	"streakd/internal/platform/sqlitedb"
)

const validVerdict = `{"authentic":true,"matchesDescription":true,"confidence":0.9,"verified":true,"reasoning":"notes match the topic"}`

type fakeAnalyzer struct {
	text  string
	err   error
	block bool
	calls int
}

func (f *fakeAnalyzer) CheckLifecycle(context.Context, domain.Manifest) error { return f.err }

func (f *fakeAnalyzer) GetMetadata(context.Context, domain.Manifest) (domain.Metadata, error) {
	return domain.Metadata{Name: "fake"}, f.err
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, _ domain.Manifest, _ domain.Request) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

type fixture struct {
	uc       verificationin.Usecase
	analyzer *fakeAnalyzer
	store    *verificationout.SQLiteVerificationStore
	streaks  streakin.Usecase
	ledger   ledgerin.Usecase
	clock    *clock.Manual
	manifest domain.Manifest
	streakID string
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlitedb.Open(filepath.Join(dir, "streakd.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	clk := &clock.Manual{T: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	txm := sqlitedb.NewTxManager(db)

	history, err := ledgerout.NewSQLiteHistoryStore(db)
	if err != nil {
		t.Fatalf("history store: %v", err)
	}
	verifications, err := verificationout.NewSQLiteVerificationStore(db)
	if err != nil {
		t.Fatalf("verification store: %v", err)
	}
	streaks, err := streakout.NewSQLiteStreakStore(db)
	if err != nil {
		t.Fatalf("streak store: %v", err)
	}
	categories, err := streakout.NewSQLiteCategoryStore(db)
	if err != nil {
		t.Fatalf("category store: %v", err)
	}
	streakUC := streakusecase.NewInteractor(streakservice.NewStreakService(clk, id.UUID{}, streaks, categories, txm, verifications, history), nil, nil)
	ledgerUC := ledgerusecase.NewInteractor(ledgerservice.NewLedgerService(clk, id.UUID{}, history, ledgerout.NewStreakAccess(streakUC), txm), nil, nil)

	binary := filepath.Join(dir, "verifier")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	sum := sha256.Sum256([]byte("#!/bin/sh\n"))
	manifest := domain.Manifest{Name: "verifier", Version: "1.0.0", Binary: binary, SHA256: hex.EncodeToString(sum[:])}

	analyzer := &fakeAnalyzer{text: validVerdict}
	svc := service.NewVerificationService(
		clk,
		id.UUID{},
		verificationout.NewFileManifestStore(dir, manifest),
		analyzer,
		verifications,
		verificationout.NewStreakAccess(streakUC),
		verificationout.NewHistoryLinker(ledgerUC),
		txm,
		timeout,
	)

	ctx := context.Background()
	category, err := streakUC.CreateCategory(ctx, streakdto.CreateCategoryInput{OwnerID: "u1", Name: "Study"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	created, err := streakUC.CreateStreak(ctx, streakdto.CreateStreakInput{OwnerID: "u1", Title: "Go book", CategoryID: category.ID})
	if err != nil {
		t.Fatalf("create streak: %v", err)
	}
	return &fixture{
		uc:       usecase.NewInteractor(svc, nil),
		analyzer: analyzer,
		store:    verifications,
		streaks:  streakUC,
		ledger:   ledgerUC,
		clock:    clk,
		manifest: manifest,
		streakID: created.Streak.ID,
	}
}

func (f *fixture) closedSession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	opened, err := f.ledger.Open(ctx, ledgerdto.OpenInput{CallerID: "u1", StreakID: f.streakID})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.clock.Advance(25 * time.Minute)
	if _, err := f.ledger.End(ctx, ledgerdto.EndInput{CallerID: "u1", StreakID: f.streakID, Confirm: "END"}); err != nil {
		t.Fatalf("end: %v", err)
	}
	return opened.HistoryID
}

func (f *fixture) rows(t *testing.T) int {
	t.Helper()
	rows, err := f.store.ListByStreak(context.Background(), f.streakID)
	if err != nil {
		t.Fatalf("list verifications: %v", err)
	}
	return len(rows)
}

func TestVerifyPersistsVerdictAndMarksHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second)
	historyID := f.closedSession(t)
	ctx := context.Background()

	out, err := f.uc.Verify(ctx, dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, HistoryID: historyID, Description: "  read chapter 4  "})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !out.Verified || out.Confidence != 0.9 || out.HistoryID != historyID || out.Reasoning == "" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.ResultText != validVerdict {
		t.Fatalf("raw verdict not preserved: %s", out.ResultText)
	}
	record, err := f.ledger.GetHistory(ctx, ledgerdto.GetHistoryInput{CallerID: "u1", StreakID: f.streakID, HistoryID: historyID})
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !record.Verified {
		t.Fatalf("history should be marked verified")
	}
	listed, err := f.uc.List(ctx, dto.ListInput{CallerID: "u1", StreakID: f.streakID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || !listed[0].Authentic {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

func TestVerifyWithoutHistoryOnlyStoresVerdict(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second)
	out, err := f.uc.Verify(context.Background(), dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, Description: "did the exercises"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.HistoryID != "" || f.rows(t) != 1 {
		t.Fatalf("unexpected result: %+v rows=%d", out, f.rows(t))
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		text  string
		err   error
		block bool
	}{
		{name: "unknown field", text: `{"authentic":true,"matchesDescription":true,"confidence":0.9,"verified":true,"reasoning":"r","extra":1}`},
		{name: "confidence out of range", text: `{"authentic":true,"matchesDescription":true,"confidence":1.5,"verified":true,"reasoning":"r"}`},
		{name: "not json", text: `I think this looks verified.`},
		{name: "missing field", text: `{"authentic":true,"confidence":0.9,"verified":true,"reasoning":"r"}`},
		{name: "transport error", err: errors.New("connection reset")},
		{name: "timeout", block: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, 20*time.Millisecond)
			historyID := f.closedSession(t)
			f.analyzer.text, f.analyzer.err, f.analyzer.block = tc.text, tc.err, tc.block

			_, err := f.uc.Verify(context.Background(), dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, HistoryID: historyID, Description: "read"})
			if apperrors.KindOf(err) != apperrors.KindUpstream {
				t.Fatalf("expected upstream error, got %v", err)
			}
			if n := f.rows(t); n != 0 {
				t.Fatalf("expected nothing persisted, got %d rows", n)
			}
			record, err := f.ledger.GetHistory(context.Background(), ledgerdto.GetHistoryInput{CallerID: "u1", StreakID: f.streakID, HistoryID: historyID})
			if err != nil {
				t.Fatalf("get history: %v", err)
			}
			if record.Verified {
				t.Fatalf("history must stay unverified")
			}
		})
	}
}

func TestVerifyGuards(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second)
	ctx := context.Background()

	cases := []struct {
		name  string
		input dto.VerifyInput
		kind  apperrors.Kind
	}{
		{name: "blank description", input: dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, Description: "   "}, kind: apperrors.KindValidation},
		{name: "foreign caller", input: dto.VerifyInput{CallerID: "u2", StreakID: f.streakID, Description: "read"}, kind: apperrors.KindForbidden},
		{name: "unknown streak", input: dto.VerifyInput{CallerID: "u1", StreakID: "missing", Description: "read"}, kind: apperrors.KindNotFound},
		{name: "unknown history", input: dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, HistoryID: "nope", Description: "read"}, kind: apperrors.KindNotFound},
	}
	for _, tc := range cases {
		if _, err := f.uc.Verify(ctx, tc.input); apperrors.KindOf(err) != tc.kind {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.kind, err)
		}
	}
	if f.analyzer.calls != 0 {
		t.Fatalf("analyzer must not run when guards fail, ran %d times", f.analyzer.calls)
	}
}

func TestVerifyRejectsOpenHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second)
	ctx := context.Background()
	opened, err := f.ledger.Open(ctx, ledgerdto.OpenInput{CallerID: "u1", StreakID: f.streakID})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	_, err = f.uc.Verify(ctx, dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, HistoryID: opened.HistoryID, Description: "read chapter 4"})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.analyzer.calls != 0 || f.rows(t) != 0 {
		t.Fatalf("analyzer ran %d times, %d rows stored", f.analyzer.calls, f.rows(t))
	}
	record, err := f.ledger.GetHistory(ctx, ledgerdto.GetHistoryInput{CallerID: "u1", StreakID: f.streakID, HistoryID: opened.HistoryID})
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if record.Status != "open" || record.Verified {
		t.Fatalf("open record must stay untouched: %+v", record)
	}
}

func TestVerifyRejectsTamperedBinary(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second)
	if err := os.WriteFile(f.manifest.Binary, []byte("#!/bin/sh\necho pwned\n"), 0o755); err != nil {
		t.Fatalf("tamper binary: %v", err)
	}
	_, err := f.uc.Verify(context.Background(), dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, Description: "read"})
	if apperrors.KindOf(err) != apperrors.KindUpstream || !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if f.analyzer.calls != 0 {
		t.Fatalf("tampered binary must not be launched")
	}

	report, err := f.uc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !report.BinaryReachable || report.ChecksumValid || report.LifecycleOK || report.Error != "checksum mismatch" {
		t.Fatalf("unexpected doctor report: %+v", report)
	}
}

func TestDoctorHealthyAnalyzer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second)
	report, err := f.uc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !report.BinaryReachable || !report.ChecksumValid || !report.LifecycleOK || report.Error != "" {
		t.Fatalf("unexpected doctor report: %+v", report)
	}
}

func TestDeleteStreakPurgesVerifications(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second)
	ctx := context.Background()
	if _, err := f.uc.Verify(ctx, dto.VerifyInput{CallerID: "u1", StreakID: f.streakID, Description: "read"}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := f.streaks.DeleteStreak(ctx, "u1", f.streakID); err != nil {
		t.Fatalf("delete streak: %v", err)
	}
	if n := f.rows(t); n != 0 {
		t.Fatalf("expected verifications purged, got %d", n)
	}
}
