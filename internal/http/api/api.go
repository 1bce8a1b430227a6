package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tusharkarle/gym-management/internal/http/api/handlers"
	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/metrics"
	"github.com/tusharkarle/gym-management/internal/reports"
	"github.com/tusharkarle/gym-management/internal/settings"
	"gorm.io/gorm"
)

// BasePath prefixes every JSON endpoint.
const BasePath = "/api/v1"

// RegisterRoutes registers the JSON API, health and metrics endpoints.
// now is the clock used for renewals, check-ins and reports; nil means time.Now.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, now func() time.Time) {
	if r == nil || db == nil {
		return
	}
	if now == nil {
		now = time.Now
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	services := membership.NewServices(db, membership.WithClock(now))
	v1 := r.Group(BasePath)

	memberHandler := handlers.NewMemberHandler(services.Members)
	v1.POST("/members", memberHandler.Create)
	v1.GET("/members", memberHandler.List)
	v1.GET("/members/:id", memberHandler.Get)
	v1.PATCH("/members/:id", memberHandler.Update)
	v1.DELETE("/members/:id", memberHandler.Delete)

	packageHandler := handlers.NewPackageHandler(services.Packages)
	v1.POST("/packages", packageHandler.Create)
	v1.GET("/packages", packageHandler.List)
	v1.GET("/packages/:id", packageHandler.Get)
	v1.PATCH("/packages/:id", packageHandler.Update)
	v1.POST("/packages/renew/:memberId/:packageId", packageHandler.Renew)
	v1.GET("/packages/member/:memberId", packageHandler.MemberPackages)
	v1.POST("/member-packages/:id/cancel", packageHandler.Cancel)

	attendanceHandler := handlers.NewAttendanceHandler(services.Attendance)
	v1.POST("/attendance/checkin", attendanceHandler.CheckIn)
	v1.GET("/attendance", attendanceHandler.List)
	v1.GET("/attendance/today", attendanceHandler.Today)

	paymentHandler := handlers.NewPaymentHandler(services.Payments)
	v1.POST("/payments", paymentHandler.Create)
	v1.GET("/payments", paymentHandler.List)

	dashboardHandler := handlers.NewDashboardHandler(reports.NewService(db, now))
	v1.GET("/dashboard/stats", dashboardHandler.Stats)
	v1.GET("/dashboard/expiring", dashboardHandler.Expiring)
	v1.GET("/dashboard/birthdays", dashboardHandler.Birthdays)
	v1.GET("/dashboard/attendance-trend", dashboardHandler.AttendanceTrend)
	v1.GET("/reports/packages", dashboardHandler.PopularPackages)
	v1.GET("/reports/revenue", dashboardHandler.Revenue)

	settingHandler := handlers.NewSettingHandler(settings.NewStore(db))
	v1.GET("/settings", settingHandler.List)
	v1.GET("/settings/:key", settingHandler.Get)
	v1.PUT("/settings/:key", settingHandler.Put)
}
