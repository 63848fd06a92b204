package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/service"
	appErrors "github.com/nafa-hr/attendance-api/pkg/errors"
	"github.com/nafa-hr/attendance-api/pkg/response"
)

// DayOffHandler wires HTTP endpoints to the day-off service.
type DayOffHandler struct {
	service *service.DayOffService
}

// NewDayOffHandler creates a new handler.
func NewDayOffHandler(svc *service.DayOffService) *DayOffHandler {
	return &DayOffHandler{service: svc}
}

// Create godoc
// @Summary Assign a weekly day off
// @Tags DayOffs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateDayOffRequest true "Day off payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /day-offs [post]
func (h *DayOffHandler) Create(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateDayOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day off payload"))
		return
	}

	dayOff, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dayOff)
}

// Update godoc
// @Summary Move a weekly day off
// @Tags DayOffs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Day off ID"
// @Param payload body dto.UpdateDayOffRequest true "Day off payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /day-offs/{id} [put]
func (h *DayOffHandler) Update(c *gin.Context) {
	var req dto.UpdateDayOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day off payload"))
		return
	}

	dayOff, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dayOff, nil)
}

// List godoc
// @Summary List day offs for one week
// @Tags DayOffs
// @Produce json
// @Security BearerAuth
// @Param date query string false "Any date inside the wanted week, defaults to today"
// @Success 200 {object} response.Envelope
// @Router /day-offs [get]
func (h *DayOffHandler) List(c *gin.Context) {
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		dayOffs, err := h.service.ListForWeek(c.Request.Context(), parsed)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dayOffs, nil)
		return
	}

	dayOffs, err := h.service.ListCurrentWeek(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dayOffs, nil)
}

// Delete godoc
// @Summary Remove a day off assignment
// @Tags DayOffs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Day off ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /day-offs/{id} [delete]
func (h *DayOffHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
