package in

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ledgerdto "streakd/internal/modules/ledger/dto"
	ledgerin "streakd/internal/modules/ledger/port/in"
	"streakd/internal/platform/httpapi"
)

type HTTPHandler struct {
	usecase ledgerin.Usecase
}

func NewHTTPHandler(usecase ledgerin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

func (h HTTPHandler) Register(api *gin.RouterGroup) {
	api.POST("/streaks/:id/sessions/open", h.open)
	api.POST("/streaks/:id/sessions/end", h.end)
	api.POST("/streaks/:id/sessions/discard", h.discard)
	api.GET("/streaks/:id/history", h.listHistory)
	api.POST("/streaks/:id/history/submit", h.submit)
}

func (h HTTPHandler) open(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	out, err := h.usecase.Open(c.Request.Context(), ledgerdto.OpenInput{CallerID: callerID, StreakID: c.Param("id")})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	status := http.StatusCreated
	if out.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, out)
}

type endRequest struct {
	Confirm string                   `json:"confirm"`
	Report  *ledgerdto.SessionReport `json:"report"`
}

func (h HTTPHandler) end(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	var req endRequest
	if !httpapi.Bind(c, &req) {
		return
	}
	out, err := h.usecase.End(c.Request.Context(), ledgerdto.EndInput{CallerID: callerID, StreakID: c.Param("id"), Confirm: req.Confirm, Report: req.Report})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) discard(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	if err := h.usecase.Discard(c.Request.Context(), ledgerdto.DiscardInput{CallerID: callerID, StreakID: c.Param("id")}); err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HTTPHandler) listHistory(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	out, err := h.usecase.ListHistory(c.Request.Context(), ledgerdto.ListHistoryInput{CallerID: callerID, StreakID: c.Param("id"), Page: page, Limit: limit})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type submitRequest struct {
	HistoryID   string `json:"historyId"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl"`
}

func (h HTTPHandler) submit(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	var req submitRequest
	if !httpapi.Bind(c, &req) {
		return
	}
	out, err := h.usecase.Submit(c.Request.Context(), ledgerdto.SubmitInput{
		CallerID:    callerID,
		StreakID:    c.Param("id"),
		HistoryID:   req.HistoryID,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
