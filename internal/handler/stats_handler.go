package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nafa-hr/attendance-api/internal/service"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
	"github.com/nafa-hr/attendance-api/pkg/response"
)

// StatsHandler wires HTTP endpoints to the stats service.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler creates a new handler.
func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

// UserMonthly godoc
// @Summary Monthly aggregates for one user
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param year query int false "Year, defaults to current"
// @Param month query int false "Month 1-12, defaults to current"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stats/users/{id} [get]
func (h *StatsHandler) UserMonthly(c *gin.Context) {
	year, month := queryMonth(c)
	stats, err := h.service.UserMonthlyStats(c.Request.Context(), c.Param("id"), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// MonthlyCounts godoc
// @Summary Per-user day counts for one month
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to current"
// @Param month query int false "Month 1-12, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /stats/monthly [get]
func (h *StatsHandler) MonthlyCounts(c *gin.Context) {
	year, month := queryMonth(c)
	counts, err := h.service.AllUsersMonthlyCounts(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, counts, nil)
}

// OrganizationSummary godoc
// @Summary Organization-wide schedule-hours summary
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to current"
// @Param month query int false "Month 1-12, defaults to current"
// @Success 200 {object} response.Envelope
// @Router /stats/summary [get]
func (h *StatsHandler) OrganizationSummary(c *gin.Context) {
	year, month := queryMonth(c)
	report, err := h.service.OrganizationMonthlySummary(c.Request.Context(), year, month)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export monthly counts as CSV or PDF
// @Tags Statistics
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string true "csv or pdf"
// @Param year query int false "Year, defaults to current"
// @Param month query int false "Month 1-12, defaults to current"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /stats/export [get]
func (h *StatsHandler) Export(c *gin.Context) {
	format := c.Query("format")
	if format == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format is required"))
		return
	}

	year, month := queryMonth(c)
	payload, filename, err := h.service.ExportMonthlyCounts(c.Request.Context(), year, month, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
