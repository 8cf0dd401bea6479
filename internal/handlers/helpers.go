package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/middleware"
)

const dateLayout = "2006-01-02"

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD calendar date. Bare dates
// are interpreted in loc; with endOfDay they cover the whole day.
func parseDate(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}

	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", raw)
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return d, nil
}

// parseDateQuery reads an optional date query parameter. An absent or empty
// parameter yields nil.
func parseDateQuery(c *gin.Context, key string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseDate(raw, loc, endOfDay)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, key+": "+err.Error())
	}
	return &t, nil
}

// respondWithError writes the failure envelope for err.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// bindError turns a binding failure into an INVALID_INPUT error.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Code    string `json:"code" example:"INVALID_INPUT"`
	Message string `json:"message"`
}

// MessageResponse is a success envelope without a payload.
type MessageResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}
