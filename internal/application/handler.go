package application

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

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrImmutableState),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrLockHeld):
		return http.StatusLocked
	case errors.Is(err, ErrDeclarationIncomplete),
		errors.Is(err, ErrMissingRequiredFields),
		errors.Is(err, ErrInvalidCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnknownSlot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateDraft godoc
// @Summary Create a draft application
// @Description Opens a new draft for the authenticated stakeholder
// @Tags applications
// @Accept json
// @Produce json
// @Param request body CreateDraftInput true "Draft details"
// @Success 201 {object} Application
// @Failure 422 {object} map[string]string
// @Router /applications [post]
func (h *Handler) CreateDraft(c *gin.Context) {
	var in CreateDraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	app, err := h.Service.CreateDraft(c.Request.Context(), in, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, app)
}

// UpdateDraft godoc
// @Summary Update a draft application
// @Description Patches draft fields; the investment total is recomputed server-side
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body DraftPatch true "Fields to update"
// @Success 200 {object} Application
// @Failure 409 {object} map[string]string
// @Router /applications/{id} [patch]
func (h *Handler) UpdateDraft(c *gin.Context) {
	var patch DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	app, err := h.Service.UpdateDraft(c.Request.Context(), c.Param("id"), patch, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

type attachDocumentRequest struct {
	Slot string  `json:"slot" binding:"required"`
	File FileRef `json:"file" binding:"required"`
}

// AttachDocument godoc
// @Summary Attach a document to a draft
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body attachDocumentRequest true "Slot and file reference"
// @Success 200 {object} Application
// @Router /applications/{id}/documents [post]
func (h *Handler) AttachDocument(c *gin.Context) {
	var req attachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	app, err := h.Service.AttachDocument(c.Request.Context(), c.Param("id"), req.Slot, req.File, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// AddDirector godoc
// @Summary Add a director to a draft
// @Tags applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body DirectorInput true "Director details"
// @Success 201 {object} Director
// @Router /applications/{id}/directors [post]
func (h *Handler) AddDirector(c *gin.Context) {
	var in DirectorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	d, err := h.Service.AddDirector(c.Request.Context(), c.Param("id"), in, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, d)
}

type attachDirectorDocumentRequest struct {
	Slot string  `json:"slot" binding:"required"`
	File FileRef `json:"file" binding:"required"`
}

// AttachDirectorDocument godoc
// @Summary Attach a document to a director
// @Tags applications
// @Param id path string true "Application ID"
// @Param directorId path int true "Director ID"
// @Success 200 {object} map[string]string
// @Router /applications/{id}/directors/{directorId}/documents [post]
func (h *Handler) AttachDirectorDocument(c *gin.Context) {
	var req attachDirectorDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	directorID, err := strconv.ParseUint(c.Param("directorId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid director id"})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	if err := h.Service.AttachDirectorDocument(c.Request.Context(), c.Param("id"), uint(directorID), req.Slot, req.File, actor.UserID, middleware.GetIPFromContext(c)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document attached"})
}

// RemoveDirector godoc
// @Summary Remove a director from a draft
// @Tags applications
// @Param id path string true "Application ID"
// @Param directorId path int true "Director ID"
// @Success 200 {object} map[string]string
// @Router /applications/{id}/directors/{directorId} [delete]
func (h *Handler) RemoveDirector(c *gin.Context) {
	directorID, err := strconv.ParseUint(c.Param("directorId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid director id"})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	if err := h.Service.RemoveDirector(c.Request.Context(), c.Param("id"), uint(directorID), actor.UserID, middleware.GetIPFromContext(c)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Director removed"})
}

// Submit godoc
// @Summary Submit an application for review
// @Description Validates declarations and required fields, then freezes the record
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} Application
// @Failure 422 {object} map[string]string
// @Router /applications/{id}/submit [post]
func (h *Handler) Submit(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)
	app, err := h.Service.Submit(c.Request.Context(), c.Param("id"), actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// Get godoc
// @Summary Get an application by ID
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} Application
// @Failure 404 {object} map[string]string
// @Router /applications/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	app, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// List godoc
// @Summary List applications
// @Tags applications
// @Produce json
// @Param status query string false "Filter by status"
// @Param stage query string false "Filter by stage"
// @Param stakeholder_type query string false "Filter by stakeholder type"
// @Param application_type query string false "Filter by application type"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Router /applications [get]
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Status:          Status(c.Query("status")),
		Stage:           Stage(c.Query("stage")),
		StakeholderType: StakeholderType(c.Query("stakeholder_type")),
		ApplicationType: ApplicationType(c.Query("application_type")),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}

	// Stakeholders only ever see their own applications
	actor, _ := middleware.ActorFromContext(c)
	if actor.Role == middleware.RoleStakeholder {
		filter.CreatedBy = actor.UserID
	}

	apps, total, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": apps,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// Progress godoc
// @Summary Get the stage tracker for an application
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {array} StageProgress
// @Router /applications/{id}/progress [get]
func (h *Handler) Progress(c *gin.Context) {
	rows, err := h.Service.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rows)
}

type advanceStageRequest struct {
	Stage Stage `json:"stage" binding:"required"`
}

// AdvanceStage godoc
// @Summary Advance an application to the next review stage
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body advanceStageRequest true "Target stage"
// @Success 200 {object} Application
// @Failure 409 {object} map[string]string
// @Router /review/applications/{id}/advance [post]
func (h *Handler) AdvanceStage(c *gin.Context) {
	var req advanceStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	app, err := h.Service.AdvanceStage(c.Request.Context(), c.Param("id"), req.Stage, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

type decideRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=approve reject"`
	Reason  string `json:"reason"`
}

// Decide godoc
// @Summary Record the terminal decision on an application
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param request body decideRequest true "Decision"
// @Success 200 {object} Application
// @Failure 409 {object} map[string]string
// @Router /review/applications/{id}/decide [post]
func (h *Handler) Decide(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	app, err := h.Service.Decide(c.Request.Context(), c.Param("id"), req.Outcome, req.Reason, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// ClaimReview godoc
// @Summary Claim the review lock on an application
// @Tags review
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} map[string]string
// @Failure 423 {object} map[string]string
// @Router /review/applications/{id}/claim [post]
func (h *Handler) ClaimReview(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)
	if err := h.Service.ClaimReview(c.Request.Context(), c.Param("id"), actor.UserID, middleware.GetIPFromContext(c)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review claimed"})
}

// ReleaseReview godoc
// @Summary Release the review lock on an application
// @Tags review
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} map[string]string
// @Router /review/applications/{id}/release [post]
func (h *Handler) ReleaseReview(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)
	if err := h.Service.ReleaseReview(c.Request.Context(), c.Param("id"), actor.UserID, middleware.GetIPFromContext(c)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review released"})
}
