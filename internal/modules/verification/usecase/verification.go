package usecase

import (
	"context"

	hclog "github.com/hashicorp/go-hclog"

	"streakd/internal/modules/verification/domain"
	"streakd/internal/modules/verification/dto"
	verificationin "streakd/internal/modules/verification/port/in"
	"streakd/internal/modules/verification/service"
	"streakd/internal/platform/logging"
)

type Interactor struct {
	svc    *service.VerificationService
	logger hclog.Logger
}

func NewInteractor(svc *service.VerificationService, logger hclog.Logger) verificationin.Usecase {
	return &Interactor{svc: svc, logger: logging.OrDiscard(logger).Named("verification")}
}

func (i *Interactor) Verify(ctx context.Context, input dto.VerifyInput) (dto.VerificationOutput, error) {
	record, err := i.svc.Verify(ctx, service.VerifyRequest{
		CallerID:    input.CallerID,
		StreakID:    input.StreakID,
		HistoryID:   input.HistoryID,
		Description: input.Description,
		PhotoURL:    input.PhotoURL,
	})
	if err != nil {
		i.logger.Warn("verification failed", "streak", input.StreakID, "history", input.HistoryID, "error", err)
		return dto.VerificationOutput{}, err
	}
	i.logger.Info("verification recorded", "streak", record.StreakID, "history", record.HistoryID, "verified", record.Verified, "confidence", record.Confidence)
	return toOutput(record), nil
}

func (i *Interactor) List(ctx context.Context, input dto.ListInput) ([]dto.VerificationOutput, error) {
	records, err := i.svc.List(ctx, input.CallerID, input.StreakID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VerificationOutput, 0, len(records))
	for _, record := range records {
		out = append(out, toOutput(record))
	}
	return out, nil
}

func (i *Interactor) Doctor(ctx context.Context) (dto.DoctorOutput, error) {
	result, err := i.svc.Doctor(ctx)
	if err != nil {
		return dto.DoctorOutput{}, err
	}
	return dto.DoctorOutput{
		Name:            result.Name,
		Version:         result.Version,
		Binary:          result.Binary,
		BinaryReachable: result.BinaryReachable,
		ChecksumValid:   result.ChecksumValid,
		LifecycleOK:     result.LifecycleOK,
		Error:           result.Error,
	}, nil
}

func toOutput(v domain.Verification) dto.VerificationOutput {
	return dto.VerificationOutput{
		ID:                 v.ID,
		StreakID:           v.StreakID,
		HistoryID:          v.HistoryID,
		Verified:           v.Verified,
		Confidence:         v.Confidence,
		Authentic:          v.Verdict.Authentic,
		MatchesDescription: v.Verdict.MatchesDescription,
		Reasoning:          v.Verdict.Reasoning,
		ResultText:         v.ResultText,
		CreatedAt:          v.CreatedAt,
	}
}
