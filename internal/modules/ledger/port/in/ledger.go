package in

import (
	"context"

	"streakd/internal/modules/ledger/dto"
)

type Usecase interface {
	Open(ctx context.Context, input dto.OpenInput) (dto.SessionOutput, error)
	End(ctx context.Context, input dto.EndInput) (dto.EndOutput, error)
	Discard(ctx context.Context, input dto.DiscardInput) error
	ListHistory(ctx context.Context, input dto.ListHistoryInput) (dto.HistoryPage, error)
	Submit(ctx context.Context, input dto.SubmitInput) (dto.HistoryOutput, error)
	GetHistory(ctx context.Context, input dto.GetHistoryInput) (dto.HistoryOutput, error)
	MarkVerified(ctx context.Context, input dto.MarkVerifiedInput) error
}
