package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tusharkarle/gym-management/internal/settings"
)

// SettingHandler serves the key/value settings endpoints.
type SettingHandler struct {
	store *settings.Store
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(store *settings.Store) *SettingHandler {
	return &SettingHandler{store: store}
}

// putSettingRequest captures the payload for writing a setting.
type putSettingRequest struct {
	Value       json.RawMessage `json:"value"`       // Any JSON value.
	Description *string         `json:"description"` // Optional description; nil keeps the current one.
}

// List returns every setting.
func (h *SettingHandler) List(c *gin.Context) {
	rows, errList := h.store.List(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	respondOK(c, http.StatusOK, rows)
}

// Get returns one setting.
func (h *SettingHandler) Get(c *gin.Context) {
	row, errGet := h.store.Get(c.Request.Context(), c.Param("key"))
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	respondOK(c, http.StatusOK, row)
}

// Put creates or replaces a setting.
func (h *SettingHandler) Put(c *gin.Context) {
	var body putSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		respondBadRequest(c, "invalid json")
		return
	}
	row, errSet := h.store.Set(c.Request.Context(), c.Param("key"), body.Value, body.Description)
	if errSet != nil {
		respondError(c, errSet)
		return
	}
	respondOK(c, http.StatusOK, row)
}
