package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/models"
)

// PaymentHandler serves payment endpoints.
type PaymentHandler struct {
	payments *membership.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *membership.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Create records a payment against a subscription.
func (h *PaymentHandler) Create(c *gin.Context) {
	var body membership.PaymentInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBadRequest(c, "invalid json")
		return
	}
	payment, errRecord := h.payments.Record(c.Request.Context(), body)
	if errRecord != nil {
		respondError(c, errRecord)
		return
	}
	respondOK(c, http.StatusCreated, payment)
}

// List returns payments filtered by member, method and date range.
func (h *PaymentHandler) List(c *gin.Context) {
	memberID, ok := parseOptionalID(c, "memberId")
	if !ok {
		return
	}
	dateRange, ok := parseDateRange(c)
	if !ok {
		return
	}
	rows, errFind := h.payments.FindAll(c.Request.Context(), membership.PaymentFilters{
		MemberID:      memberID,
		PaymentMethod: models.PaymentMethod(strings.TrimSpace(c.Query("paymentMethod"))),
		DateRange:     dateRange,
	})
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}
