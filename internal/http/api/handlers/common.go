package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tusharkarle/gym-management/internal/logging"
	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/settings"
)

// Envelope is the response body shared by every API endpoint.
type Envelope struct {
	Success bool   `json:"success"`           // Whether the request succeeded.
	Data    any    `json:"data,omitempty"`    // Payload on success.
	Message string `json:"message,omitempty"` // Optional human readable note.
	Error   string `json:"error,omitempty"`   // Error summary on failure.
	Details any    `json:"details,omitempty"` // Per-field validation messages.
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: message})
}

// respondError maps service errors onto status codes.
func respondError(c *gin.Context, err error) {
	var validationErr *membership.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: membership.ErrValidation.Error(), Details: validationErr.Fields})
	case errors.Is(err, membership.ErrValidation),
		errors.Is(err, settings.ErrInvalidKey),
		errors.Is(err, settings.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: err.Error()})
	case errors.Is(err, membership.ErrNotFound), errors.Is(err, settings.ErrNotFound):
		c.JSON(http.StatusNotFound, Envelope{Success: false, Error: err.Error()})
	case errors.Is(err, membership.ErrDuplicateIdentity),
		errors.Is(err, membership.ErrDuplicateEmail),
		errors.Is(err, membership.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Envelope{Success: false, Error: err.Error()})
	default:
		log.WithError(err).
			WithField("request_id", logging.RequestID(c)).
			Errorf("%s %s failed", c.Request.Method, c.FullPath())
		c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: "internal server error"})
	}
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, errID := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errID != nil || id == 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseOptionalID reads an optional positive integer query parameter.
func parseOptionalID(c *gin.Context, name string) (uint64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	id, errID := strconv.ParseUint(raw, 10, 64)
	if errID != nil || id == 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseOptionalInt reads an optional integer query parameter; 0 means unset.
func parseOptionalInt(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, errParse := strconv.Atoi(raw)
	if errParse != nil || v < 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// parseDateRange reads the start and end query parameters. Both are optional together.
// A date-only end covers that whole day.
func parseDateRange(c *gin.Context) (*membership.DateRange, bool) {
	startQ := strings.TrimSpace(c.Query("start"))
	endQ := strings.TrimSpace(c.Query("end"))
	if startQ == "" && endQ == "" {
		return nil, true
	}

	ve := &membership.ValidationError{}
	var start, end time.Time
	if startQ == "" {
		ve.Add("start", "is required when end is set")
	} else if t, _, errParse := parseQueryTime(startQ); errParse != nil {
		ve.Add("start", "must be a date (YYYY-MM-DD) or RFC3339 timestamp")
	} else {
		start = t
	}
	if endQ == "" {
		ve.Add("end", "is required when start is set")
	} else if t, dateOnly, errParse := parseQueryTime(endQ); errParse != nil {
		ve.Add("end", "must be a date (YYYY-MM-DD) or RFC3339 timestamp")
	} else {
		end = t
		if dateOnly {
			end = end.AddDate(0, 0, 1)
		}
	}
	if !ve.Empty() {
		respondError(c, ve)
		return nil, false
	}
	return &membership.DateRange{Start: start, End: end}, true
}

// parseQueryTime parses a date in the server's local zone or an RFC3339 instant.
func parseQueryTime(value string) (time.Time, bool, error) {
	if t, errDate := time.ParseInLocation(time.DateOnly, value, time.Local); errDate == nil {
		return t, true, nil
	}
	t, errParse := time.Parse(time.RFC3339, value)
	return t, false, errParse
}
