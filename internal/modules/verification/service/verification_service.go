package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streakd/internal/modules/verification/domain"
	verificationout "streakd/internal/modules/verification/port/out"
	"streakd/internal/platform/clock"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/id"
	"streakd/internal/platform/tx"
)

const DefaultTimeout = 2 * time.Minute

type VerifyRequest struct {
	CallerID    string
	StreakID    string
	HistoryID   string
	Description string
	PhotoURL    string
}

type DoctorResult struct {
	Name            string
	Version         string
	Binary          string
	BinaryReachable bool
	ChecksumValid   bool
	LifecycleOK     bool
	Error           string
}

type VerificationService struct {
	clock     clock.Clock
	idGen     id.Generator
	manifests verificationout.ManifestSource
	analyzer  verificationout.Analyzer
	store     verificationout.VerificationStore
	streaks   verificationout.StreakAccess
	history   verificationout.HistoryLinker
	tx        tx.Manager
	timeout   time.Duration
}

func NewVerificationService(
	clock clock.Clock,
	idGen id.Generator,
	manifests verificationout.ManifestSource,
	analyzer verificationout.Analyzer,
	store verificationout.VerificationStore,
	streaks verificationout.StreakAccess,
	history verificationout.HistoryLinker,
	txm tx.Manager,
	timeout time.Duration,
) *VerificationService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &VerificationService{
		clock:     clock,
		idGen:     idGen,
		manifests: manifests,
		analyzer:  analyzer,
		store:     store,
		streaks:   streaks,
		history:   history,
		tx:        txm,
		timeout:   timeout,
	}
}

// Verify fails closed: nothing is written unless the analyzer produced a
// schema-valid verdict.
func (s *VerificationService) Verify(ctx context.Context, req VerifyRequest) (domain.Verification, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.Verification{}, fmt.Errorf("%w: description is required", apperrors.ErrInvalidInput)
	}
	streak, err := s.streaks.Resolve(ctx, req.CallerID, req.StreakID)
	if err != nil {
		return domain.Verification{}, err
	}
	historyID := strings.TrimSpace(req.HistoryID)
	if historyID != "" {
		if err := s.history.Check(ctx, req.CallerID, streak.ID, historyID); err != nil {
			return domain.Verification{}, err
		}
	}

	raw, err := s.analyze(ctx, domain.Request{
		StreakID:    streak.ID,
		StreakTitle: streak.Title,
		HistoryID:   historyID,
		Description: description,
		PhotoURL:    strings.TrimSpace(req.PhotoURL),
	})
	if err != nil {
		return domain.Verification{}, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	verdict, err := domain.ParseVerdict(raw)
	if err != nil {
		return domain.Verification{}, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}

	record := domain.Verification{
		ID:         s.idGen.New(),
		StreakID:   streak.ID,
		HistoryID:  historyID,
		Verified:   verdict.Verified,
		Confidence: verdict.Confidence,
		ResultText: strings.TrimSpace(raw),
		Verdict:    verdict,
		CreatedAt:  s.clock.Now(),
	}
	err = s.tx.Within(ctx, func(txCtx context.Context) error {
		if err := s.store.Insert(txCtx, record); err != nil {
			return err
		}
		if historyID == "" {
			return nil
		}
		return s.history.MarkVerified(txCtx, streak.ID, historyID, verdict.Verified)
	})
	if err != nil {
		return domain.Verification{}, err
	}
	return record, nil
}

func (s *VerificationService) List(ctx context.Context, callerID, streakID string) ([]domain.Verification, error) {
	if _, err := s.streaks.Resolve(ctx, callerID, streakID); err != nil {
		return nil, err
	}
	return s.store.ListByStreak(ctx, streakID)
}

func (s *VerificationService) analyze(ctx context.Context, req domain.Request) (string, error) {
	manifest, err := s.runnableManifest(ctx)
	if err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.analyzer.Analyze(callCtx, manifest, req)
}

func (s *VerificationService) runnableManifest(ctx context.Context) (domain.Manifest, error) {
	manifest, err := s.manifests.Load(ctx)
	if err != nil {
		return domain.Manifest{}, err
	}
	if err := manifest.Validate(); err != nil {
		return domain.Manifest{}, err
	}
	if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
		return domain.Manifest{}, err
	}
	return manifest, nil
}

func (s *VerificationService) Doctor(ctx context.Context) (DoctorResult, error) {
	m, err := s.manifests.Load(ctx)
	if err != nil {
		return DoctorResult{}, err
	}
	result := DoctorResult{Name: m.Name, Version: m.Version, Binary: m.Binary}
	if err := m.Validate(); err != nil {
		result.Error = err.Error()
		return result, nil
	}
	binaryOK := fileExists(m.Binary)
	result.BinaryReachable = binaryOK
	checksumOK := false
	if binaryOK {
		checksumOK = checksumMatches(m.Binary, m.SHA256) == nil
	}
	result.ChecksumValid = checksumOK
	if binaryOK && checksumOK {
		if err := s.analyzer.CheckLifecycle(ctx, m); err != nil {
			result.Error = err.Error()
		} else {
			result.LifecycleOK = true
		}
	}
	if !binaryOK {
		result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
	}
	if binaryOK && !checksumOK {
		result.Error = "checksum mismatch"
	}
	return result, nil
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read analyzer binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
