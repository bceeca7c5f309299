package in

import (
	"context"

	"streakd/internal/modules/session/dto"
)

type Usecase interface {
	// Open resumes the run recorded for the key, or starts a new one.
	Open(ctx context.Context, key dto.RunKey) (dto.RunView, error)
	Apply(ctx context.Context, input dto.ApplyInput) (dto.ApplyOutput, error)
	Move(ctx context.Context, input dto.MoveInput) (dto.RunView, error)
	Pending(ctx context.Context, userID string) ([]dto.PendingRun, error)
}
