package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tusharkarle/gym-management/internal/membership"
)

// AttendanceHandler serves check-in endpoints.
type AttendanceHandler struct {
	attendance *membership.AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(attendance *membership.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// checkInRequest captures the payload for a check-in.
type checkInRequest struct {
	MemberID uint64 `json:"memberId"` // Member checking in.
	Notes    string `json:"notes"`    // Optional note.
}

// CheckIn records a check-in at the current time.
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var body checkInRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBadRequest(c, "invalid json")
		return
	}
	if body.MemberID == 0 {
		ve := &membership.ValidationError{}
		ve.Add("memberId", "is required")
		respondError(c, ve)
		return
	}
	row, errCheckIn := h.attendance.CheckIn(c.Request.Context(), body.MemberID, body.Notes)
	if errCheckIn != nil {
		respondError(c, errCheckIn)
		return
	}
	respondOK(c, http.StatusCreated, row)
}

// List returns check-ins filtered by member and date range.
func (h *AttendanceHandler) List(c *gin.Context) {
	memberID, ok := parseOptionalID(c, "memberId")
	if !ok {
		return
	}
	dateRange, ok := parseDateRange(c)
	if !ok {
		return
	}
	rows, errFind := h.attendance.FindAll(c.Request.Context(), membership.AttendanceFilters{
		MemberID:  memberID,
		DateRange: dateRange,
	})
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// Today returns check-ins for the current local day.
func (h *AttendanceHandler) Today(c *gin.Context) {
	rows, errFind := h.attendance.GetTodaysAttendance(c.Request.Context())
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}
