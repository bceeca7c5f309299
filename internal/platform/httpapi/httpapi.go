// Package httpapi holds the gin helpers shared by every module's HTTP adapter.
package httpapi

import (
	"errors"

	"github.com/gin-gonic/gin"

	"streakd/internal/platform/auth"
	apperrors "streakd/internal/platform/errors"
)

type errorBody struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
}

type envelope struct {
	Error errorBody `json:"error"`
}

// Fail writes the error envelope with the status matching err's kind.
// Internal errors are not echoed to the client.
func Fail(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	message := err.Error()
	if kind == apperrors.KindInternal {
		message = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), envelope{Error: errorBody{Kind: kind, Message: message}})
}

// Caller returns the authenticated user id, writing a 401 when there is none.
func Caller(c *gin.Context) (string, bool) {
	callerID, err := auth.CallerFrom(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return "", false
	}
	return callerID, true
}

// Bind decodes the JSON body into dst, mapping decode failures to validation errors.
func Bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Fail(c, errors.Join(apperrors.ErrInvalidInput, err))
		return false
	}
	return true
}

