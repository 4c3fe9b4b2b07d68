package reports

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

// ExportRegister godoc
// @Summary Download a register
// @Description Registers: applications, decisions, audit_trail. Formats: csv, xlsx, pdf
// @Tags reports
// @Produce octet-stream
// @Param register path string true "Register name"
// @Param format query string false "Export format (default csv)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /reports/{register} [get]
func (h *Handler) ExportRegister(c *gin.Context) {
	format := c.DefaultQuery("format", FormatCSV)

	data, filename, contentType, err := h.Service.ExportRegister(c.Request.Context(), c.Param("register"), format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}

// Summary godoc
// @Summary Dashboard summary counts
// @Tags reports
// @Produce json
// @Success 200 {object} DashboardSummary
// @Router /reports/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.Service.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
