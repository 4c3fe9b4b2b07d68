package feed

import (
	"errors"
	"io"
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
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrHasAuditTrail):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidPriority):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// CreateItem godoc
// @Summary Post a feed item
// @Tags feed
// @Accept json
// @Produce json
// @Param request body CreateItemInput true "Item details"
// @Success 201 {object} Item
// @Failure 422 {object} map[string]string
// @Router /feed [post]
func (h *Handler) CreateItem(c *gin.Context) {
	var in CreateItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, _ := middleware.ActorFromContext(c)
	item, err := h.Service.CreateItem(c.Request.Context(), in, actor.UserID, middleware.GetIPFromContext(c))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// Put godoc
// @Summary Upsert a feed item by id
// @Tags feed
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body Item true "Full item record"
// @Success 200 {object} Item
// @Failure 422 {object} map[string]string
// @Router /feed/{id} [put]
func (h *Handler) Put(c *gin.Context) {
	var item Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item.ID = c.Param("id")

	actor, _ := middleware.ActorFromContext(c)
	if err := h.Service.Put(c.Request.Context(), &item, actor.UserID, middleware.GetIPFromContext(c)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

// List godoc
// @Summary List feed items
// @Description Filters combine; priority accepts any casing
// @Tags feed
// @Produce json
// @Param kind query string false "Filter by kind"
// @Param priority query string false "Filter by priority"
// @Param category query string false "Filter by category"
// @Param search query string false "Case-insensitive title/body search"
// @Param unread query bool false "Unread items only"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Router /feed [get]
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{
		Kind:     Kind(c.Query("kind")),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("priority"); raw != "" {
		p, ok := ParsePriority(raw)
		if !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ErrInvalidPriority.Error()})
			return
		}
		filter.Priority = p
	}
	if unread, err := strconv.ParseBool(c.Query("unread")); err == nil {
		filter.UnreadOnly = unread
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}

	items, total, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// Get godoc
// @Summary Get a feed item
// @Tags feed
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} Item
// @Failure 404 {object} map[string]string
// @Router /feed/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	item, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

// MarkRead godoc
// @Summary Mark a feed item as read
// @Tags feed
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} map[string]string
// @Router /feed/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.Service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}

// MarkAllRead godoc
// @Summary Mark every feed item as read
// @Tags feed
// @Produce json
// @Success 200 {object} map[string]string
// @Router /feed/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	if err := h.Service.MarkAllRead(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All items marked as read"})
}

// UnreadCount godoc
// @Summary Count unread feed items
// @Tags feed
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /feed/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.Service.UnreadCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// Delete godoc
// @Summary Remove a feed item
// @Description Items with an audit trail or recorded decisions cannot be removed
// @Tags feed
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /feed/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)
	if err := h.Service.Delete(c.Request.Context(), c.Param("id"), actor.UserID, middleware.GetIPFromContext(c)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed"})
}

// ListNotifications godoc
// @Summary List the caller's in-app notifications
// @Tags feed
// @Produce json
// @Param unread_only query bool false "Only unread notifications"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /feed/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	unreadOnly := c.Query("unread_only") == "true"

	notifications, total, err := h.Service.ListNotifications(c.Request.Context(), actor.UserID, unreadOnly, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// MarkNotificationRead godoc
// @Summary Mark one of the caller's notifications as read
// @Tags feed
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /feed/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	if err := h.Service.MarkNotificationRead(c.Request.Context(), uint(id), actor.UserID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// UnreadNotificationCount godoc
// @Summary Count the caller's unread notifications
// @Tags feed
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /feed/notifications/unread-count [get]
func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	count, err := h.Service.UnreadNotificationCount(c.Request.Context(), actor.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// Stream godoc
// @Summary Live feed over server-sent events
// @Description Pushes each new feed item as an SSE "feed" event
// @Tags feed
// @Produce text/event-stream
// @Success 200 {string} string "SSE stream"
// @Router /feed/stream [get]
func (h *Handler) Stream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	pubsub := Subscribe(c.Request.Context())
	defer pubsub.Close()

	ch := pubsub.Channel()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("feed", msg.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
