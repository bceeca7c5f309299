package in

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	streakdto "streakd/internal/modules/streak/dto"
	streakin "streakd/internal/modules/streak/port/in"
	"streakd/internal/platform/httpapi"
)

const IdempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	usecase streakin.Usecase
}

func NewHTTPHandler(usecase streakin.Usecase) HTTPHandler {
	return HTTPHandler{usecase: usecase}
}

// Register mounts the category and streak routes on an authenticated group.
func (h HTTPHandler) Register(api *gin.RouterGroup) {
	api.POST("/categories", h.createCategory)
	api.POST("/streaks", h.createStreak)
	api.GET("/streaks", h.listStreaks)
	api.GET("/streaks/:id", h.getStreak)
	api.PATCH("/streaks/:id/settings", h.updateSettings)
	api.DELETE("/streaks/:id", h.deleteStreak)
}

type createCategoryRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
}

func (h HTTPHandler) createCategory(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	var req createCategoryRequest
	if !httpapi.Bind(c, &req) {
		return
	}
	out, err := h.usecase.CreateCategory(c.Request.Context(), streakdto.CreateCategoryInput{OwnerID: callerID, Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type createStreakRequest struct {
	Title                 string `json:"title"`
	CategoryID            string `json:"categoryId"`
	SubcategoryID         string `json:"subcategoryId"`
	FocusMinutes          *int   `json:"focusMinutes"`
	BreakMinutes          *int   `json:"breakMinutes"`
	BreakRepetitionBudget *int   `json:"breakRepetitionBudget"`
	Difficulty            string `json:"difficulty"`
	IdempotencyKey        string `json:"idempotencyKey"`
}

func (h HTTPHandler) createStreak(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	var req createStreakRequest
	if !httpapi.Bind(c, &req) {
		return
	}
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	}
	out, err := h.usecase.CreateStreak(c.Request.Context(), streakdto.CreateStreakInput{
		OwnerID:               callerID,
		Title:                 req.Title,
		CategoryID:            req.CategoryID,
		SubcategoryID:         req.SubcategoryID,
		FocusMinutes:          req.FocusMinutes,
		BreakMinutes:          req.BreakMinutes,
		BreakRepetitionBudget: req.BreakRepetitionBudget,
		Difficulty:            req.Difficulty,
		IdempotencyKey:        key,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if out.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", out.Payload)
}

func (h HTTPHandler) listStreaks(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	out, err := h.usecase.ListStreaks(c.Request.Context(), callerID)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h HTTPHandler) getStreak(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	out, err := h.usecase.GetStreak(c.Request.Context(), callerID, c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type updateSettingsRequest struct {
	Title                 *string `json:"title"`
	FocusMinutes          *int    `json:"focusMinutes"`
	BreakMinutes          *int    `json:"breakMinutes"`
	BreakRepetitionBudget *int    `json:"breakRepetitionBudget"`
	Difficulty            *string `json:"difficulty"`
}

func (h HTTPHandler) updateSettings(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	var req updateSettingsRequest
	if !httpapi.Bind(c, &req) {
		return
	}
	out, err := h.usecase.UpdateSettings(c.Request.Context(), streakdto.UpdateSettingsInput{
		CallerID:              callerID,
		StreakID:              c.Param("id"),
		Title:                 req.Title,
		FocusMinutes:          req.FocusMinutes,
		BreakMinutes:          req.BreakMinutes,
		BreakRepetitionBudget: req.BreakRepetitionBudget,
		Difficulty:            req.Difficulty,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h HTTPHandler) deleteStreak(c *gin.Context) {
	callerID, ok := httpapi.Caller(c)
	if !ok {
		return
	}
	if err := h.usecase.DeleteStreak(c.Request.Context(), callerID, c.Param("id")); err != nil {
		httpapi.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
