package service

import (
	"context"
	"fmt"
	"strings"

	"streakd/internal/modules/streak/domain"
	streakout "streakd/internal/modules/streak/port/out"
	"streakd/internal/platform/clock"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/platform/id"
	"streakd/internal/platform/tx"
)

type StreakService struct {
	clock      clock.Clock
	idGen      id.Generator
	streaks    streakout.StreakStore
	categories streakout.CategoryStore
	purgers    []streakout.DependentPurger
	tx         tx.Manager
}

func NewStreakService(clock clock.Clock, idGen id.Generator, streaks streakout.StreakStore, categories streakout.CategoryStore, txm tx.Manager, purgers ...streakout.DependentPurger) *StreakService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	return &StreakService{clock: clock, idGen: idGen, streaks: streaks, categories: categories, purgers: purgers, tx: txm}
}

func (s *StreakService) CreateCategory(ctx context.Context, ownerID, name, parentID string) (domain.Category, error) {
	parentID = strings.TrimSpace(parentID)
	if parentID != "" {
		if _, err := s.ownedCategory(ctx, ownerID, parentID); err != nil {
			return domain.Category{}, err
		}
	}
	category := domain.Category{
		ID:        s.idGen.New(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		ParentID:  parentID,
		CreatedAt: s.clock.Now(),
	}
	if err := category.Validate(); err != nil {
		return domain.Category{}, err
	}
	if err := s.categories.Insert(ctx, category); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

type CreateParams struct {
	Title         string
	CategoryID    string
	SubcategoryID string
	Timing        domain.Timing
	Difficulty    string
}

func (s *StreakService) Create(ctx context.Context, ownerID string, params CreateParams) (domain.Streak, error) {
	if strings.TrimSpace(ownerID) == "" {
		return domain.Streak{}, apperrors.ErrUnauthorized
	}
	if strings.TrimSpace(params.Title) == "" {
		return domain.Streak{}, fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	categoryID := strings.TrimSpace(params.CategoryID)
	if categoryID == "" {
		return domain.Streak{}, fmt.Errorf("%w: category is required", apperrors.ErrInvalidInput)
	}
	if _, err := s.ownedCategory(ctx, ownerID, categoryID); err != nil {
		return domain.Streak{}, err
	}
	subcategoryID := strings.TrimSpace(params.SubcategoryID)
	if subcategoryID != "" {
		sub, err := s.ownedCategory(ctx, ownerID, subcategoryID)
		if err != nil {
			return domain.Streak{}, err
		}
		if sub.ParentID != categoryID {
			return domain.Streak{}, fmt.Errorf("%w: subcategory %s does not belong to category %s", apperrors.ErrInvalidInput, subcategoryID, categoryID)
		}
	}
	difficulty, err := domain.ParseDifficulty(params.Difficulty)
	if err != nil {
		return domain.Streak{}, err
	}

	now := s.clock.Now()
	streak := domain.Streak{
		ID:            s.idGen.New(),
		OwnerID:       ownerID,
		Title:         strings.TrimSpace(params.Title),
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Timing:        params.Timing,
		Difficulty:    difficulty,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := streak.Validate(); err != nil {
		return domain.Streak{}, err
	}
	if err := s.streaks.Insert(ctx, streak); err != nil {
		return domain.Streak{}, err
	}
	return streak, nil
}

// Get loads a streak and checks that callerID owns it.
func (s *StreakService) Get(ctx context.Context, callerID, streakID string) (domain.Streak, error) {
	if strings.TrimSpace(callerID) == "" {
		return domain.Streak{}, apperrors.ErrUnauthorized
	}
	streak, err := s.streaks.Get(ctx, streakID)
	if err != nil {
		return domain.Streak{}, err
	}
	if !streak.OwnedBy(callerID) {
		return domain.Streak{}, fmt.Errorf("%w: streak %s", apperrors.ErrForbidden, streakID)
	}
	return streak, nil
}

func (s *StreakService) List(ctx context.Context, callerID string) ([]domain.Streak, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return s.streaks.ListByOwner(ctx, callerID)
}

type SettingsPatch struct {
	Title                 *string
	FocusMinutes          *int
	BreakMinutes          *int
	BreakRepetitionBudget *int
	Difficulty            *string
}

// UpdateSettings edits the streak. Runs already in progress keep the timing
// they captured at start.
func (s *StreakService) UpdateSettings(ctx context.Context, callerID, streakID string, patch SettingsPatch) (domain.Streak, error) {
	streak, err := s.Get(ctx, callerID, streakID)
	if err != nil {
		return domain.Streak{}, err
	}
	if patch.Title != nil {
		streak.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.FocusMinutes != nil {
		streak.Timing.FocusMinutes = *patch.FocusMinutes
	}
	if patch.BreakMinutes != nil {
		streak.Timing.BreakMinutes = *patch.BreakMinutes
	}
	if patch.BreakRepetitionBudget != nil {
		streak.Timing.BreakRepetitionBudget = *patch.BreakRepetitionBudget
	}
	if patch.Difficulty != nil {
		difficulty, err := domain.ParseDifficulty(*patch.Difficulty)
		if err != nil {
			return domain.Streak{}, err
		}
		streak.Difficulty = difficulty
	}
	streak.UpdatedAt = s.clock.Now()
	if err := streak.Validate(); err != nil {
		return domain.Streak{}, err
	}
	if err := s.streaks.Update(ctx, streak); err != nil {
		return domain.Streak{}, err
	}
	return streak, nil
}

// Delete removes dependent records and then the streak, in one transaction.
func (s *StreakService) Delete(ctx context.Context, callerID, streakID string) error {
	if _, err := s.Get(ctx, callerID, streakID); err != nil {
		return err
	}
	return s.tx.Within(ctx, func(ctx context.Context) error {
		for _, purger := range s.purgers {
			if err := purger.PurgeStreak(ctx, streakID); err != nil {
				return err
			}
		}
		return s.streaks.Delete(ctx, streakID)
	})
}

func (s *StreakService) ownedCategory(ctx context.Context, ownerID, categoryID string) (domain.Category, error) {
	category, err := s.categories.Get(ctx, categoryID)
	if err != nil {
		return domain.Category{}, fmt.Errorf("category %s: %w", categoryID, err)
	}
	if category.OwnerID != ownerID {
		return domain.Category{}, fmt.Errorf("category %s: %w", categoryID, apperrors.ErrNotFound)
	}
	return category, nil
}
