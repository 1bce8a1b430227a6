package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tusharkarle/gym-management/internal/membership"
)

// PackageHandler serves package templates, renewals and subscription endpoints.
type PackageHandler struct {
	packages *membership.PackageService
}

// NewPackageHandler constructs a PackageHandler.
func NewPackageHandler(packages *membership.PackageService) *PackageHandler {
	return &PackageHandler{packages: packages}
}

// renewRequest is the optional body of a renewal.
type renewRequest struct {
	Payment *membership.PaymentDetails `json:"payment"` // Records a payment in the same transaction when set.
}

// Create adds a package template.
func (h *PackageHandler) Create(c *gin.Context) {
	var body membership.PackageInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBadRequest(c, "invalid json")
		return
	}
	pkg, errCreate := h.packages.Create(c.Request.Context(), body)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	respondOK(c, http.StatusCreated, pkg)
}

// List returns active packages.
func (h *PackageHandler) List(c *gin.Context) {
	rows, errFind := h.packages.FindAll(c.Request.Context())
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// Get returns one package regardless of its active flag.
func (h *PackageHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pkg, errFind := h.packages.FindOne(c.Request.Context(), id)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, pkg)
}

// Update applies a partial update. Existing subscriptions keep their snapshot.
func (h *PackageHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body membership.PackagePatch
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBadRequest(c, "invalid json")
		return
	}
	pkg, errUpdate := h.packages.Update(c.Request.Context(), id, body)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	respondOK(c, http.StatusOK, pkg)
}

// Renew sells a package to a member, optionally recording a payment.
func (h *PackageHandler) Renew(c *gin.Context) {
	memberID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}
	packageID, ok := parseIDParam(c, "packageId")
	if !ok {
		return
	}
	var body renewRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil && !errors.Is(errBind, io.EOF) {
		respondBadRequest(c, "invalid json")
		return
	}

	subscription, errRenew := h.packages.Renew(c.Request.Context(), membership.RenewRequest{
		MemberID:  memberID,
		PackageID: packageID,
		Payment:   body.Payment,
	})
	if errRenew != nil {
		respondError(c, errRenew)
		return
	}
	respondOK(c, http.StatusCreated, subscription)
}

// MemberPackages lists a member's subscriptions.
func (h *PackageHandler) MemberPackages(c *gin.Context) {
	memberID, ok := parseIDParam(c, "memberId")
	if !ok {
		return
	}
	rows, errFind := h.packages.GetMemberPackages(c.Request.Context(), memberID)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// Cancel moves an active subscription to cancelled.
func (h *PackageHandler) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	subscription, errCancel := h.packages.CancelMemberPackage(c.Request.Context(), id)
	if errCancel != nil {
		respondError(c, errCancel)
		return
	}
	respondOK(c, http.StatusOK, subscription)
}
