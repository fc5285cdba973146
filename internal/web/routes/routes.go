// internal/web/routes/routes.go
package routes

import (
	"github.com/gofiber/fiber/v2"

	"departure-monitor/config"
	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/utils"
	apiHandlers "departure-monitor/internal/web/handlers/api"
	"departure-monitor/internal/web/middleware"
	webServices "departure-monitor/internal/web/services"
)

// Router 라우터 구조체
type Router struct {
	app      *fiber.App
	config   *config.Config
	logger   *utils.Logger
	handlers *Handlers
}

// Handlers API 핸들러들
type Handlers struct {
	Monitor *apiHandlers.MonitorHandler
	Status  *apiHandlers.StatusHandler
	Cache   *apiHandlers.CacheHandler
}

// Dependencies 의존성 구조체
type Dependencies struct {
	Config      *config.Config
	Logger      *utils.Logger
	Coordinator *coordinator.Coordinator
	Archive     webServices.SnapshotReader // nil 이면 아카이브 라우트는 503
}

// NewRouter 새로운 라우터 생성
func NewRouter(app *fiber.App, deps *Dependencies) *Router {
	// 웹 서비스 레이어 생성
	monitorService := webServices.NewMonitorService(deps.Coordinator, deps.Logger, deps.Config.RequestTimeout)
	statusService := webServices.NewStatusService(deps.Config, deps.Logger, deps.Coordinator, deps.Archive)
	cacheService := webServices.NewCacheService(deps.Logger, deps.Coordinator, deps.Archive)

	handlers := &Handlers{
		Monitor: apiHandlers.NewMonitorHandler(monitorService, deps.Config.MaxStationsPerRequest),
		Status:  apiHandlers.NewStatusHandler(statusService),
		Cache:   apiHandlers.NewCacheHandler(cacheService),
	}

	return &Router{
		app:      app,
		config:   deps.Config,
		logger:   deps.Logger,
		handlers: handlers,
	}
}

// SetupRoutes 모든 라우트 설정
func (r *Router) SetupRoutes() {
	r.app.Get("/health", r.handlers.Status.GetHealthCheck)

	// 이전 클라이언트 호환 경로
	r.app.Post("/api/monitor", r.handlers.Monitor.GetMonitors)

	r.SetupAPIV1Routes()

	r.app.Use(middleware.NotFoundHandler)
}

// SetupAPIV1Routes API v1 라우트 설정
func (r *Router) SetupAPIV1Routes() {
	v1 := r.app.Group("/api/v1")

	v1.Post("/monitors", r.handlers.Monitor.GetMonitors)
	v1.Get("/status", r.handlers.Status.GetStatus)
	v1.Get("/archive/stations/:stationId", r.handlers.Cache.GetLatestSnapshot)

	// 관리자 라우트
	admin := v1.Group("/cache", middleware.AdminAuth(r.config.AdminKey))
	admin.Delete("/stations", r.handlers.Cache.InvalidateStations)
	admin.Get("/pending", r.handlers.Cache.GetPendingRequests)
}
