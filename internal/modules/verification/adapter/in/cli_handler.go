package in

import (
	"context"

	verificationdto "streakd/internal/modules/verification/dto"
	verificationin "streakd/internal/modules/verification/port/in"
)

type CLIHandler struct {
	usecase verificationin.Usecase
}

func NewCLIHandler(usecase verificationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Verify(ctx context.Context, callerID, streakID, historyID, description, photoURL string) (verificationdto.VerificationOutput, error) {
	return h.usecase.Verify(ctx, verificationdto.VerifyInput{
		CallerID:    callerID,
		StreakID:    streakID,
		HistoryID:   historyID,
		Description: description,
		PhotoURL:    photoURL,
	})
}

func (h CLIHandler) List(ctx context.Context, callerID, streakID string) ([]verificationdto.VerificationOutput, error) {
	return h.usecase.List(ctx, verificationdto.ListInput{CallerID: callerID, StreakID: streakID})
}

func (h CLIHandler) Doctor(ctx context.Context) (verificationdto.DoctorOutput, error) {
	return h.usecase.Doctor(ctx)
}
