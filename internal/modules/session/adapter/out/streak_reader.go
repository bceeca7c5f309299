package out

import (
	"context"
	"net/http"
	"net/url"

	sessionout "streakd/internal/modules/session/port/out"
	streakdto "streakd/internal/modules/streak/dto"
	streakin "streakd/internal/modules/streak/port/in"
	"streakd/internal/platform/httpapi"
)

type LocalStreakReader struct {
	streaks streakin.Usecase
}

func NewLocalStreakReader(streaks streakin.Usecase) sessionout.StreakReader {
	return LocalStreakReader{streaks: streaks}
}

func (r LocalStreakReader) Settings(ctx context.Context, userID, streakID string) (sessionout.StreakSettings, error) {
	streak, err := r.streaks.GetStreak(ctx, userID, streakID)
	if err != nil {
		return sessionout.StreakSettings{}, err
	}
	return toSettings(streak), nil
}

type HTTPStreakReader struct {
	client *httpapi.Client
}

func NewHTTPStreakReader(client *httpapi.Client) sessionout.StreakReader {
	return HTTPStreakReader{client: client}
}

func (r HTTPStreakReader) Settings(ctx context.Context, _, streakID string) (sessionout.StreakSettings, error) {
	streak := streakdto.StreakOutput{}
	if err := r.client.Do(ctx, http.MethodGet, "/api/streaks/"+url.PathEscape(streakID), nil, &streak); err != nil {
		return sessionout.StreakSettings{}, err
	}
	return toSettings(streak), nil
}

func toSettings(streak streakdto.StreakOutput) sessionout.StreakSettings {
	return sessionout.StreakSettings{
		ID:                    streak.ID,
		Title:                 streak.Title,
		FocusMinutes:          streak.FocusMinutes,
		BreakMinutes:          streak.BreakMinutes,
		BreakRepetitionBudget: streak.BreakRepetitionBudget,
	}
}
