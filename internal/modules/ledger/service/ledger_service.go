package service

import (
	"context"
	"fmt"
	"strings"

	"streakd/internal/modules/ledger/domain"
	ledgerout "streakd/internal/modules/ledger/port/out"
	"streakd/internal/platform/clock"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/id"
	"streakd/internal/platform/tx"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type LedgerService struct {
	clock   clock.Clock
	idGen   id.Generator
	history ledgerout.HistoryStore
	streaks ledgerout.StreakAccess
	tx      tx.Manager
}

func NewLedgerService(clock clock.Clock, idGen id.Generator, history ledgerout.HistoryStore, streaks ledgerout.StreakAccess, txm tx.Manager) *LedgerService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	return &LedgerService{clock: clock, idGen: idGen, history: history, streaks: streaks, tx: txm}
}

// Open starts a record for the streak, or returns the one already open.
func (s *LedgerService) Open(ctx context.Context, callerID, streakID string) (domain.HistoryRecord, bool, error) {
	if _, err := s.streaks.Resolve(ctx, callerID, streakID); err != nil {
		return domain.HistoryRecord{}, false, err
	}
	var (
		record  domain.HistoryRecord
		resumed bool
	)
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		candidate := domain.NewOpenRecord(s.idGen.New(), streakID, s.clock.Now())
		inserted, err := s.history.InsertOpen(ctx, candidate)
		if err != nil {
			return err
		}
		if inserted {
			record = candidate
			return nil
		}
		existing, err := s.history.FindOpen(ctx, streakID)
		if err != nil {
			return err
		}
		record, resumed = existing, true
		return nil
	})
	if err != nil {
		return domain.HistoryRecord{}, false, err
	}
	return record, resumed, nil
}

type EndResult struct {
	Record domain.HistoryRecord
	Streak ledgerout.StreakRef
}

// End closes the open record with a duration measured by the server clock.
func (s *LedgerService) End(ctx context.Context, callerID, streakID, confirm string, report *domain.Report) (EndResult, error) {
	if strings.TrimSpace(callerID) == "" {
		return EndResult{}, apperrors.ErrUnauthorized
	}
	if confirm != domain.ConfirmToken {
		return EndResult{}, fmt.Errorf("%w: confirm must be %q", apperrors.ErrInvalidInput, domain.ConfirmToken)
	}
	ref, err := s.streaks.Resolve(ctx, callerID, streakID)
	if err != nil {
		return EndResult{}, err
	}
	if report != nil {
		normalized, err := report.Normalize()
		if err != nil {
			return EndResult{}, err
		}
		report = &normalized
	}
	var closed domain.HistoryRecord
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		open, err := s.history.FindOpen(ctx, streakID)
		if err != nil {
			return err
		}
		closed, err = open.Close(s.clock.Now(), report)
		if err != nil {
			return err
		}
		return s.history.Close(ctx, closed)
	})
	if err != nil {
		return EndResult{}, err
	}
	return EndResult{Record: closed, Streak: ref}, nil
}

// Discard drops the open record so the run leaves no history behind.
func (s *LedgerService) Discard(ctx context.Context, callerID, streakID string) (domain.HistoryRecord, error) {
	if _, err := s.streaks.Resolve(ctx, callerID, streakID); err != nil {
		return domain.HistoryRecord{}, err
	}
	var discarded domain.HistoryRecord
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		open, err := s.history.FindOpen(ctx, streakID)
		if err != nil {
			return err
		}
		discarded = open
		return s.history.DeleteOpen(ctx, open.ID)
	})
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	return discarded, nil
}

type Page struct {
	Records []domain.HistoryRecord
	Total   int
	Page    int
	Limit   int
}

func (s *LedgerService) ListHistory(ctx context.Context, callerID, streakID string, page, limit int) (Page, error) {
	if _, err := s.streaks.Resolve(ctx, callerID, streakID); err != nil {
		return Page{}, err
	}
	page, limit = normalizePage(page, limit)
	records, total, err := s.history.List(ctx, streakID, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}
	return Page{Records: records, Total: total, Page: page, Limit: limit}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return page, limit
}

// Submit attaches documentation to an existing record of the streak.
func (s *LedgerService) Submit(ctx context.Context, callerID, streakID, historyID, description, photoURL string) (EndResult, error) {
	ref, err := s.streaks.Resolve(ctx, callerID, streakID)
	if err != nil {
		return EndResult{}, err
	}
	description = strings.TrimSpace(description)
	photoURL = strings.TrimSpace(photoURL)
	if description == "" || photoURL == "" {
		return EndResult{}, fmt.Errorf("%w: description and photo url are required", apperrors.ErrInvalidInput)
	}
	record, err := s.recordOf(ctx, streakID, historyID)
	if err != nil {
		return EndResult{}, err
	}
	if err := s.history.UpdateDocumentation(ctx, record.ID, description, photoURL); err != nil {
		return EndResult{}, err
	}
	record.Description = description
	record.PhotoURL = photoURL
	return EndResult{Record: record, Streak: ref}, nil
}

func (s *LedgerService) Get(ctx context.Context, callerID, streakID, historyID string) (domain.HistoryRecord, error) {
	if _, err := s.streaks.Resolve(ctx, callerID, streakID); err != nil {
		return domain.HistoryRecord{}, err
	}
	return s.recordOf(ctx, streakID, historyID)
}

// MarkVerified is called after ownership was checked by the caller.
func (s *LedgerService) MarkVerified(ctx context.Context, streakID, historyID string, verified bool) error {
	record, err := s.recordOf(ctx, streakID, historyID)
	if err != nil {
		return err
	}
	return s.history.SetVerified(ctx, record.ID, verified)
}

func (s *LedgerService) recordOf(ctx context.Context, streakID, historyID string) (domain.HistoryRecord, error) {
	historyID = strings.TrimSpace(historyID)
	if historyID == "" {
		return domain.HistoryRecord{}, fmt.Errorf("%w: history id is required", apperrors.ErrInvalidInput)
	}
	record, err := s.history.Get(ctx, historyID)
	if err != nil {
		return domain.HistoryRecord{}, err
	}
	if record.StreakID != streakID {
		return domain.HistoryRecord{}, fmt.Errorf("history %s: %w", historyID, apperrors.ErrNotFound)
	}
	return record, nil
}
