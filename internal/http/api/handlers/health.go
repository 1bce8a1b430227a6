package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	dbutil "github.com/tusharkarle/gym-management/internal/db"
	"gorm.io/gorm"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	db      *gorm.DB
	started time.Time
}

// HealthStatus is the payload of GET /healthz.
type HealthStatus struct {
	Database      string `json:"database"`                // up or down.
	Dialect       string `json:"dialect,omitempty"`       // sqlite or postgres.
	SchemaVersion int    `json:"schemaVersion,omitempty"` // Highest applied migration.
	Uptime        string `json:"uptime"`                  // Time since the handler was built.
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Healthz pings the database. It answers 503 with Database "down" when the ping fails.
func (h *HealthHandler) Healthz(c *gin.Context) {
	status := HealthStatus{
		Database: "up",
		Dialect:  dbutil.DialectName(h.db),
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}

	if errPing := h.ping(c.Request.Context()); errPing != nil {
		log.WithError(errPing).Warn("health check: database unreachable")
		status.Database = "down"
		c.JSON(http.StatusServiceUnavailable, Envelope{Success: false, Data: status, Error: "database unavailable"})
		return
	}

	if version, errVersion := dbutil.CurrentVersion(h.db.WithContext(c.Request.Context())); errVersion == nil {
		status.SchemaVersion = version
	}
	respondOK(c, http.StatusOK, status)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	if h.db == nil {
		return errors.New("no database configured")
	}
	sqlDB, errDB := h.db.DB()
	if errDB != nil {
		return errDB
	}
	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}
