package in

import (
	"net/http"

	"github.com/gin-gonic/gin"

	verificationdto "streakd/internal/modules/verification/dto"
	verificationin "streakd/internal/modules/verification/port/in"
	"streakd/internal/platform/httpapi"
)

type HTTPHandler struct {
	usecase verificationin.Usecase
}

func NewHTTPHandler(usecase verificationin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

func (h HTTPHandler) Register(api *gin.RouterGroup) {
	api.POST("/streaks/:id/verify", h.verify)
	api.GET("/streaks/:id/verifications", h.list)
}

func (h HTTPHandler) verify(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	var req verificationdto.VerifyInput
	if !httpapi.Bind(c, &req) {
		return
	}
	req.CallerID = callerID
	req.StreakID = c.Param("id")
	out, err := h.usecase.Verify(c.Request.Context(), req)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h HTTPHandler) list(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	out, err := h.usecase.List(c.Request.Context(), verificationdto.ListInput{CallerID: callerID, StreakID: c.Param("id")})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
