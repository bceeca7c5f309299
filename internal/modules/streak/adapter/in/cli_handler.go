package in

import (
	"context"

	streakdto "streakd/internal/modules/streak/dto"
	streakin "streakd/internal/modules/streak/port/in"
)

type CLIHandler struct {
	usecase streakin.Usecase
}

func NewCLIHandler(usecase streakin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) CreateCategory(ctx context.Context, ownerID, name, parentID string) (streakdto.CategoryOutput, error) {
	return h.usecase.CreateCategory(ctx, streakdto.CreateCategoryInput{OwnerID: ownerID, Name: name, ParentID: parentID})
}

func (h CLIHandler) Create(ctx context.Context, input streakdto.CreateStreakInput) (streakdto.CreateStreakOutput, error) {
	return h.usecase.CreateStreak(ctx, input)
}

func (h CLIHandler) Get(ctx context.Context, ownerID, streakID string) (streakdto.StreakOutput, error) {
	return h.usecase.GetStreak(ctx, ownerID, streakID)
}

func (h CLIHandler) List(ctx context.Context, ownerID string) ([]streakdto.StreakOutput, error) {
	return h.usecase.ListStreaks(ctx, ownerID)
}

func (h CLIHandler) UpdateSettings(ctx context.Context, input streakdto.UpdateSettingsInput) (streakdto.StreakOutput, error) {
	return h.usecase.UpdateSettings(ctx, input)
}

func (h CLIHandler) Delete(ctx context.Context, ownerID, streakID string) error {
	return h.usecase.DeleteStreak(ctx, ownerID, streakID)
}
