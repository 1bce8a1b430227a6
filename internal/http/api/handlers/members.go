package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/models"
)

// MemberHandler serves member registration and maintenance endpoints.
type MemberHandler struct {
	members *membership.MemberService
}

// NewMemberHandler constructs a MemberHandler.
func NewMemberHandler(members *membership.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

// Create registers a member.
func (h *MemberHandler) Create(c *gin.Context) {
	var body membership.MemberInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBadRequest(c, "invalid json")
		return
	}
	member, errCreate := h.members.Create(c.Request.Context(), body)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	respondOK(c, http.StatusCreated, member)
}

// List returns members filtered by first-name substring and gender.
func (h *MemberHandler) List(c *gin.Context) {
	filters := membership.MemberFilters{
		Search: c.Query("search"),
		Gender: models.Gender(strings.TrimSpace(c.Query("gender"))),
	}
	rows, errFind := h.members.FindAll(c.Request.Context(), filters)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// Get returns one member with subscriptions, attendance and payments.
func (h *MemberHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	member, errFind := h.members.FindOne(c.Request.Context(), id)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	respondOK(c, http.StatusOK, member)
}

// Update applies a partial update.
func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body membership.MemberPatch
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBadRequest(c, "invalid json")
		return
	}
	member, errUpdate := h.members.Update(c.Request.Context(), id, body)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	respondOK(c, http.StatusOK, member)
}

// Delete removes a member and everything that belongs to it.
func (h *MemberHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if errRemove := h.members.Remove(c.Request.Context(), id); errRemove != nil {
		respondError(c, errRemove)
		return
	}
	respondMessage(c, "Member deleted successfully")
}
