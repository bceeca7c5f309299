package in

import (
	"context"

	"streakd/internal/modules/streak/dto"
)

type Usecase interface {
	CreateCategory(ctx context.Context, input dto.CreateCategoryInput) (dto.CategoryOutput, error)
	CreateStreak(ctx context.Context, input dto.CreateStreakInput) (dto.CreateStreakOutput, error)
	GetStreak(ctx context.Context, callerID, streakID string) (dto.StreakOutput, error)
	ListStreaks(ctx context.Context, callerID string) ([]dto.StreakOutput, error)
	UpdateSettings(ctx context.Context, input dto.UpdateSettingsInput) (dto.StreakOutput, error)
	DeleteStreak(ctx context.Context, callerID, streakID string) error
}
