package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/tusharkarle/gym-management/internal/config"
	"github.com/tusharkarle/gym-management/internal/db"
	"github.com/tusharkarle/gym-management/internal/expiry"
	relayhttp "github.com/tusharkarle/gym-management/internal/http"
	"github.com/tusharkarle/gym-management/internal/http/api"
	"github.com/tusharkarle/gym-management/internal/logging"
	"github.com/tusharkarle/gym-management/internal/metrics"
	"github.com/tusharkarle/gym-management/internal/settings"
	"github.com/tusharkarle/gym-management/internal/webui"
	"gorm.io/gorm"
)

// loadConfig resolves and loads the configuration for a command.
func loadConfig(cfg config.AppConfig) (*config.Config, string, error) {
	config.LoadDotEnv()
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	appCfg, err := config.Load(configPath)
	if err != nil {
		return nil, configPath, err
	}
	return appCfg, configPath, nil
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	appCfg, _, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	conn, err := db.Open(appCfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn.WithContext(ctx)); errMigrate != nil {
		return errMigrate
	}
	version, errVersion := db.CurrentVersion(conn)
	if errVersion != nil {
		return errVersion
	}
	log.Infof("database schema at version %d", version)
	return nil
}

// NewEngine builds the gin engine with middleware, API routes and the optional web UI.
func NewEngine(conn *gorm.DB, appCfg *config.Config, bundle *webui.Bundle, now func() time.Time) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), logging.RequestLogger(), metrics.Middleware())
	if appCfg != nil && len(appCfg.Server.CORSOrigins) > 0 {
		engine.Use(relayhttp.CORSMiddleware(appCfg.Server.CORSOrigins))
	}
	api.RegisterRoutes(engine, conn, now)
	bundle.Register(engine, isAPIRoute)
	return engine
}

// RunServer boots the HTTP server, the expiry sweeper and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	appCfg, configPath, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	logCloser, errLogging := logging.Setup(appCfg.Logging)
	if errLogging != nil {
		return errLogging
	}
	defer func() { _ = logCloser.Close() }()

	webBundle, errLoad := webui.Load(appCfg.Web.DistDir)
	if errLoad != nil {
		return errLoad
	}
	conn, err := db.Open(appCfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		return fmt.Errorf("load settings: %w", errRefresh)
	}

	if !appCfg.Jobs.DisableExpirySweep {
		if sweeper := expiry.NewSweeper(conn, appCfg.Jobs.ExpirySchedule); sweeper != nil {
			if errStart := sweeper.Start(ctx); errStart != nil {
				return errStart
			}
			defer sweeper.Stop()
		}
	}

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := NewEngine(conn, appCfg, webBundle, time.Now)

	ln, errListen := net.Listen("tcp", appCfg.Addr())
	if errListen != nil {
		return fmt.Errorf("listen %s: %w", appCfg.Addr(), errListen)
	}
	log.Infof("starting gym server on %s with config=%s", ln.Addr(), configPath)
	return serveHTTP(ctx, &http.Server{Handler: engine, ReadHeaderTimeout: 10 * time.Second}, ln, appCfg.Server.ShutdownTimeout)
}

// serveHTTP serves on ln until ctx is cancelled, then shuts down gracefully.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down gym server")
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	if errServe := <-errCh; errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		return errServe
	}
	return nil
}

// isAPIRoute reports whether a path targets API endpoints.
func isAPIRoute(requestPath string) bool {
	for _, prefix := range []string{"/healthz", "/metrics", "/api"} {
		if requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/") {
			return true
		}
	}
	return false
}
