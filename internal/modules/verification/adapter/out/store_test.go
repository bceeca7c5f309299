package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	verificationout "streakd/internal/modules/verification/adapter/out"
	"streakd/internal/modules/verification/domain"
	"streakd/internal/platform/sqlitedb"
)

func TestSQLiteVerificationStoreListAndPurge(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "streakd.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	store, err := verificationout.NewSQLiteVerificationStore(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	raw := `{"authentic":true,"matchesDescription":false,"confidence":0.4,"verified":false,"reasoning":"off topic"}`
	for i, v := range []domain.Verification{
		{ID: "v1", StreakID: "s1", Confidence: 0.4, ResultText: raw, CreatedAt: base},
		{ID: "v2", StreakID: "s1", HistoryID: "h1", Verified: true, Confidence: 0.9, ResultText: raw, CreatedAt: base.Add(time.Minute)},
		{ID: "v3", StreakID: "s2", ResultText: raw, CreatedAt: base},
	} {
		if err := store.Insert(ctx, v); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	listed, err := store.ListByStreak(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "v2" || listed[1].ID != "v1" {
		t.Fatalf("expected newest first, got %+v", listed)
	}
	if !listed[0].Verified || listed[0].HistoryID != "h1" || !listed[0].CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected row: %+v", listed[0])
	}
	if listed[1].Verdict.Reasoning != "off topic" {
		t.Fatalf("verdict not decoded: %+v", listed[1].Verdict)
	}

	if err := store.PurgeStreak(ctx, "s1"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if listed, _ = store.ListByStreak(ctx, "s1"); len(listed) != 0 {
		t.Fatalf("expected purge, got %d", len(listed))
	}
	if listed, _ = store.ListByStreak(ctx, "s2"); len(listed) != 1 {
		t.Fatalf("other streak must survive purge")
	}
}

func TestFileManifestStorePrefersFileOverFallback(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	fallback := domain.Manifest{Name: "from-config", Binary: "/opt/verifier"}
	store := verificationout.NewFileManifestStore(base, fallback)

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load fallback: %v", err)
	}
	if got != fallback {
		t.Fatalf("expected fallback, got %+v", got)
	}

	if err := os.MkdirAll(filepath.Join(base, "plugins"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	payload := `{"name":"verifier","version":"1.0.0","binary":"bin/verifier","sha256":"abc"}`
	if err := os.WriteFile(filepath.Join(base, "plugins", "verifier.json"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	got, err = store.Load(context.Background())
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if got.Name != "verifier" || got.Binary != filepath.Join(base, "bin", "verifier") {
		t.Fatalf("unexpected manifest: %+v", got)
	}

	if err := os.WriteFile(filepath.Join(base, "plugins", "verifier.json"), []byte(`{"name":"x","enabled":true}`), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected unknown field rejection")
	}
}
