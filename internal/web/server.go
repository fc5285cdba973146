package web

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"departure-monitor/config"
	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/utils"
	"departure-monitor/internal/web/middleware"
	"departure-monitor/internal/web/routes"
	webServices "departure-monitor/internal/web/services"
)

// maxBodySize 요청 본문 최대 크기 (정류장 ID 목록만 받음)
const maxBodySize = 64 * 1024

// Server Fiber 기반 모니터 서버
type Server struct {
	app         *fiber.App
	config      *config.Config
	logger      *utils.Logger
	coordinator *coordinator.Coordinator
}

// NewServer 새로운 웹 서버 생성 (archive 는 nil 가능)
func NewServer(cfg *config.Config, logger *utils.Logger, coord *coordinator.Coordinator, archive webServices.SnapshotReader) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "departure-monitor",
		ErrorHandler:          middleware.ErrorHandler,
		BodyLimit:             maxBodySize,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
	})

	// 글로벌 미들웨어 설정
	app.Use(recover.New())
	app.Use(middleware.CORSConfig())
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.RequestLogger(logger))

	router := routes.NewRouter(app, &routes.Dependencies{
		Config:      cfg,
		Logger:      logger,
		Coordinator: coord,
		Archive:     archive,
	})
	router.SetupRoutes()

	return &Server{
		app:         app,
		config:      cfg,
		logger:      logger,
		coordinator: coord,
	}
}

// Start 웹 서버 시작 (종료될 때까지 블록)
func (s *Server) Start() error {
	address := fmt.Sprintf(":%d", s.config.WebPort)

	s.logger.Infof("🌐 모니터 서버 시작 - http://localhost:%d", s.config.WebPort)
	s.logger.Infof("📡 POST /api/v1/monitors, GET /health, GET /api/v1/status")

	return s.app.Listen(address)
}

// Shutdown 진행 중인 요청을 기다리며 서버 종료
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("🛑 모니터 서버 정지 중...")
	return s.app.ShutdownWithContext(ctx)
}

// App Fiber 앱 인스턴스 반환 (테스트용)
func (s *Server) App() *fiber.App {
	return s.app
}
