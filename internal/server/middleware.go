package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	hclog "github.com/hashicorp/go-hclog"

	"streakd/internal/platform/auth"
	"streakd/internal/platform/httpapi"
)

func authenticate(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := verifier.Verify(c.Request.Context(), auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			httpapi.Fail(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithCaller(c.Request.Context(), userID))
		c.Next()
	}
}

func requestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
		}
		if userID, err := auth.CallerFrom(c.Request.Context()); err == nil {
			args = append(args, "user", userID)
		}
		switch {
		case status >= 500:
			logger.Error("request", args...)
		case status >= 400:
			logger.Warn("request", args...)
		default:
			logger.Debug("request", args...)
		}
	}
}

func recovery(logger hclog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.Error("panic serving request", "path", c.Request.URL.Path, "panic", rec)
		httpapi.Fail(c, fmt.Errorf("panic: %v", rec))
	})
}
