package in

import (
	"context"

	"streakd/internal/modules/verification/dto"
)

type Usecase interface {
	Verify(ctx context.Context, input dto.VerifyInput) (dto.VerificationOutput, error)
	List(ctx context.Context, input dto.ListInput) ([]dto.VerificationOutput, error)
	Doctor(ctx context.Context) (dto.DoctorOutput, error)
}
