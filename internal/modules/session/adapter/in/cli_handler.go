package in

import (
	"context"

	sessiondto "streakd/internal/modules/session/dto"
	sessionin "streakd/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Open(ctx context.Context, userID, streakID string) (sessiondto.RunView, error) {
	return h.usecase.Open(ctx, sessiondto.RunKey{UserID: userID, StreakID: streakID})
}

// Do applies a single named operation, as used by the non-interactive
// `session` subcommands.
func (h CLIHandler) Do(ctx context.Context, userID, streakID, op string) (sessiondto.ApplyOutput, error) {
	return h.usecase.Apply(ctx, sessiondto.ApplyInput{Key: sessiondto.RunKey{UserID: userID, StreakID: streakID}, Op: sessiondto.Operation(op)})
}

func (h CLIHandler) Pending(ctx context.Context, userID string) ([]sessiondto.PendingRun, error) {
	return h.usecase.Pending(ctx, userID)
}

func (h CLIHandler) Move(ctx context.Context, userID, streakID string, dx, dy int) (sessiondto.RunView, error) {
	return h.usecase.Move(ctx, sessiondto.MoveInput{Key: sessiondto.RunKey{UserID: userID, StreakID: streakID}, DX: dx, DY: dy})
}
