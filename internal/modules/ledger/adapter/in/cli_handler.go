package in

import (
	"context"

	ledgerdto "streakd/internal/modules/ledger/dto"
	ledgerin "streakd/internal/modules/ledger/port/in"
)

type CLIHandler struct {
	usecase ledgerin.Usecase
}

func NewCLIHandler(usecase ledgerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) History(ctx context.Context, callerID, streakID string, page, limit int) (ledgerdto.HistoryPage, error) {
	return h.usecase.ListHistory(ctx, ledgerdto.ListHistoryInput{CallerID: callerID, StreakID: streakID, Page: page, Limit: limit})
}

func (h CLIHandler) Submit(ctx context.Context, callerID, streakID, historyID, description, photoURL string) (ledgerdto.HistoryOutput, error) {
	return h.usecase.Submit(ctx, ledgerdto.SubmitInput{CallerID: callerID, StreakID: streakID, HistoryID: historyID, Description: description, PhotoURL: photoURL})
}

func (h CLIHandler) End(ctx context.Context, callerID, streakID, confirm string) (ledgerdto.EndOutput, error) {
	return h.usecase.End(ctx, ledgerdto.EndInput{CallerID: callerID, StreakID: streakID, Confirm: confirm})
}
