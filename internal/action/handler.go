package action

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mwangik8/sugar-board-backend/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyDecided):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOutcome), errors.Is(err, ErrInvalidQuorum):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CreateAction godoc
// @Summary Open a board action
// @Tags actions
// @Accept json
// @Produce json
// @Param request body CreateActionInput true "Action details"
// @Success 201 {object} Action
// @Failure 422 {object} map[string]string
// @Router /actions [post]
func (h *Handler) CreateAction(c *gin.Context) {
	var in CreateActionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	a, err := h.Service.CreateAction(c.Request.Context(), in, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, a)
}

type recordDecisionRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Comment string `json:"comment"`
}

// RecordDecision godoc
// @Summary Record a decision on a board action
// @Description One decision per actor; approvals resolve immediately, votes at quorum
// @Tags actions
// @Accept json
// @Produce json
// @Param id path string true "Action ID"
// @Param request body recordDecisionRequest true "Decision"
// @Success 200 {object} Action
// @Failure 409 {object} map[string]string
// @Router /actions/{id}/decisions [post]
func (h *Handler) RecordDecision(c *gin.Context) {
	var req recordDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	a, err := h.Service.RecordDecision(c.Request.Context(), c.Param("id"), actor.UserID, actor.Name, req.Outcome, req.Comment, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, a)
}

// Get godoc
// @Summary Get a board action with its decision history
// @Tags actions
// @Produce json
// @Param id path string true "Action ID"
// @Success 200 {object} Action
// @Failure 404 {object} map[string]string
// @Router /actions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	a, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, a)
}

// List godoc
// @Summary List board actions
// @Tags actions
// @Produce json
// @Param kind query string false "Filter by kind"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Router /actions [get]
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Kind:   Kind(c.Query("kind")),
		Status: ActionStatus(c.Query("status")),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}

	actions, total, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actions": actions,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}
