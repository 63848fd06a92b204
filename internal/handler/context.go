package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nafa-hr/attendance-api/internal/middleware"
	"github.com/nafa-hr/attendance-api/internal/models"
)

// currentClaims extracts the authenticated JWT claims from the context.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// queryMonth parses year and month query parameters, defaulting to the
// current month.
func queryMonth(c *gin.Context) (int, time.Month) {
	now := time.Now()
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, time.Month(month)
}
