package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/service"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
	"github.com/nafa-hr/attendance-api/pkg/response"
)

// AutoFillHandler exposes the auto-fill materialization endpoint.
type AutoFillHandler struct {
	service *service.AutoFillService
	metrics *service.MetricsService
}

// NewAutoFillHandler creates a new handler.
func NewAutoFillHandler(svc *service.AutoFillService, metrics *service.MetricsService) *AutoFillHandler {
	return &AutoFillHandler{service: svc, metrics: metrics}
}

// Fill godoc
// @Summary Materialize attendance rows for a shift
// @Description Create one resolved attendance record per eligible user for the date
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AutoFillRequest true "Auto-fill payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendances/auto-fill [post]
func (h *AutoFillHandler) Fill(c *gin.Context) {
	var req dto.AutoFillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid auto-fill payload"))
		return
	}

	result, err := h.service.Fill(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordAutoFill(result.CreatedCount, result.SkippedCount)

	response.JSON(c, http.StatusOK, result, nil)
}
