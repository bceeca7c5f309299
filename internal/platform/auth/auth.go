package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	apperrors "streakd/internal/platform/errors"
)

// Verifier resolves a bearer token to a user id. Token issuance lives outside
// this service.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticTokens verifies tokens against a configured token->user table.
type StaticTokens struct {
	tokens map[string]string
}

func NewStaticTokens(tokens map[string]string) StaticTokens {
	copied := make(map[string]string, len(tokens))
	for token, user := range tokens {
		copied[token] = user
	}
	return StaticTokens{tokens: copied}
}

func (s StaticTokens) Verify(_ context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", apperrors.ErrUnauthorized)
	}
	for candidate, user := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
			return user, nil
		}
	}
	return "", fmt.Errorf("%w: unknown token", apperrors.ErrUnauthorized)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type callerKey struct{}

func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFrom returns the authenticated user id bound to ctx.
func CallerFrom(ctx context.Context) (string, error) {
	userID, _ := ctx.Value(callerKey{}).(string)
	if strings.TrimSpace(userID) == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}
