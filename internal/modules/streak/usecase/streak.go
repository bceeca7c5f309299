package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"streakd/internal/modules/streak/domain"
	"streakd/internal/modules/streak/dto"
	streakin "streakd/internal/modules/streak/port/in"
	"streakd/internal/modules/streak/service"
	"streakd/internal/platform/idempotency"
	"streakd/internal/platform/logging"
)

type Interactor struct {
	svc    *service.StreakService
	guard  *idempotency.Guard
	logger hclog.Logger
}

func NewInteractor(svc *service.StreakService, guard *idempotency.Guard, logger hclog.Logger) streakin.Usecase {
	return &Interactor{svc: svc, guard: guard, logger: logging.OrDiscard(logger).Named("streak")}
}

func (i *Interactor) CreateCategory(ctx context.Context, input dto.CreateCategoryInput) (dto.CategoryOutput, error) {
	category, err := i.svc.CreateCategory(ctx, input.OwnerID, input.Name, input.ParentID)
	if err != nil {
		return dto.CategoryOutput{}, err
	}
	return dto.CategoryOutput{ID: category.ID, Name: category.Name, ParentID: category.ParentID}, nil
}

func (i *Interactor) CreateStreak(ctx context.Context, input dto.CreateStreakInput) (dto.CreateStreakOutput, error) {
	create := func(ctx context.Context) (any, error) {
		streak, err := i.svc.Create(ctx, input.OwnerID, service.CreateParams{
			Title:         input.Title,
			CategoryID:    input.CategoryID,
			SubcategoryID: input.SubcategoryID,
			Timing: domain.Timing{
				FocusMinutes:          intOr(input.FocusMinutes, domain.DefaultFocusMinutes),
				BreakMinutes:          intOr(input.BreakMinutes, domain.DefaultBreakMinutes),
				BreakRepetitionBudget: intOr(input.BreakRepetitionBudget, domain.DefaultBreakBudget),
			},
			Difficulty: input.Difficulty,
		})
		if err != nil {
			return nil, err
		}
		i.logger.Info("streak created", "streak", streak.ID, "owner", streak.OwnerID)
		return toOutput(streak), nil
	}

	var (
		result idempotency.Result
		err    error
	)
	if i.guard != nil {
		result, err = i.guard.Do(ctx, input.OwnerID, input.IdempotencyKey, create)
	} else {
		var out any
		if out, err = create(ctx); err == nil {
			result.Payload, err = json.Marshal(out)
		}
	}
	if err != nil {
		return dto.CreateStreakOutput{}, err
	}

	streak := dto.StreakOutput{}
	if err := json.Unmarshal(result.Payload, &streak); err != nil {
		return dto.CreateStreakOutput{}, fmt.Errorf("decode streak response: %w", err)
	}
	if result.Replayed {
		i.logger.Info("streak creation replayed", "streak", streak.ID, "owner", input.OwnerID)
	}
	return dto.CreateStreakOutput{Streak: streak, Payload: result.Payload, Replayed: result.Replayed}, nil
}

func (i *Interactor) GetStreak(ctx context.Context, callerID, streakID string) (dto.StreakOutput, error) {
	streak, err := i.svc.Get(ctx, callerID, streakID)
	if err != nil {
		return dto.StreakOutput{}, err
	}
	return toOutput(streak), nil
}

func (i *Interactor) ListStreaks(ctx context.Context, callerID string) ([]dto.StreakOutput, error) {
	streaks, err := i.svc.List(ctx, callerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StreakOutput, 0, len(streaks))
	for _, streak := range streaks {
		out = append(out, toOutput(streak))
	}
	return out, nil
}

func (i *Interactor) UpdateSettings(ctx context.Context, input dto.UpdateSettingsInput) (dto.StreakOutput, error) {
	streak, err := i.svc.UpdateSettings(ctx, input.CallerID, input.StreakID, service.SettingsPatch{
		Title:                 input.Title,
		FocusMinutes:          input.FocusMinutes,
		BreakMinutes:          input.BreakMinutes,
		BreakRepetitionBudget: input.BreakRepetitionBudget,
		Difficulty:            input.Difficulty,
	})
	if err != nil {
		return dto.StreakOutput{}, err
	}
	return toOutput(streak), nil
}

func (i *Interactor) DeleteStreak(ctx context.Context, callerID, streakID string) error {
	if err := i.svc.Delete(ctx, callerID, streakID); err != nil {
		return err
	}
	i.logger.Info("streak deleted", "streak", streakID, "owner", callerID)
	return nil
}

func toOutput(streak domain.Streak) dto.StreakOutput {
	return dto.StreakOutput{
		ID:                    streak.ID,
		OwnerID:               streak.OwnerID,
		Title:                 streak.Title,
		CategoryID:            streak.CategoryID,
		SubcategoryID:         streak.SubcategoryID,
		FocusMinutes:          streak.Timing.FocusMinutes,
		BreakMinutes:          streak.Timing.BreakMinutes,
		BreakRepetitionBudget: streak.Timing.BreakRepetitionBudget,
		Difficulty:            string(streak.Difficulty),
		CreatedAt:             streak.CreatedAt,
		UpdatedAt:             streak.UpdatedAt,
	}
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
