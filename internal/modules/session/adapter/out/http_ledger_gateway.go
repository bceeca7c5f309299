package out

import (
	"context"
	"net/http"
	"net/url"

	ledgerdto "streakd/internal/modules/ledger/dto"
	"streakd/internal/modules/session/domain"
	sessionout "streakd/internal/modules/session/port/out"
	"streakd/internal/platform/httpapi"
)

// HTTPLedgerGateway talks to a remote `streakd serve`. The user is the one
// bound to the client's token, so userID is not sent.
type HTTPLedgerGateway struct {
	client *httpapi.Client
}

func NewHTTPLedgerGateway(client *httpapi.Client) sessionout.LedgerGateway {
	return HTTPLedgerGateway{client: client}
}

func (g HTTPLedgerGateway) Open(ctx context.Context, _, streakID string) (sessionout.OpenedRecord, error) {
	out := ledgerdto.SessionOutput{}
	if err := g.client.Do(ctx, http.MethodPost, sessionsPath(streakID, "open"), struct{}{}, &out); err != nil {
		return sessionout.OpenedRecord{}, err
	}
	return sessionout.OpenedRecord{HistoryID: out.HistoryID, Resumed: out.Resumed}, nil
}

func (g HTTPLedgerGateway) End(ctx context.Context, _, streakID string, completion domain.Completion) (int, error) {
	body := struct {
		Confirm string                   `json:"confirm"`
		Report  *ledgerdto.SessionReport `json:"report"`
	}{Confirm: ledgerConfirm, Report: toReport(completion)}
	out := ledgerdto.EndOutput{}
	if err := g.client.Do(ctx, http.MethodPost, sessionsPath(streakID, "end"), body, &out); err != nil {
		return 0, err
	}
	return out.DurationMinutes, nil
}

func (g HTTPLedgerGateway) Discard(ctx context.Context, _, streakID string) error {
	return g.client.Do(ctx, http.MethodPost, sessionsPath(streakID, "discard"), struct{}{}, nil)
}

func sessionsPath(streakID, action string) string {
	return "/api/streaks/" + url.PathEscape(streakID) + "/sessions/" + action
}
