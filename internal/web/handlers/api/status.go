// internal/web/handlers/api/status.go
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"departure-monitor/internal/web/models/responses"
	"departure-monitor/internal/web/services"
)

// StatusHandler 상태 관련 API 핸들러
type StatusHandler struct {
	statusService *services.StatusService
}

// NewStatusHandler 상태 핸들러 생성
func NewStatusHandler(statusService *services.StatusService) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
	}
}

// GetStatus 시스템 상태 조회
// @Summary 시스템 상태 조회
// @Description 조정자 통계, 설정 요약, 현재 페치 상태를 반환합니다
// @Tags status
// @Produce json
// @Success 200 {object} responses.StatusResponse
// @Router /api/v1/status [get]
func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	response := responses.StatusResponse{
		BaseResponse: responses.NewSuccessResponse("시스템 상태 조회 성공"),
		Data:         h.statusService.GetSystemStatus(c.UserContext()),
	}

	return c.JSON(response)
}

// GetHealthCheck 헬스체크
// @Summary 헬스체크
// @Description 공유 캐시 백엔드의 응답 여부를 확인합니다
// @Tags status
// @Produce json
// @Success 200 {object} responses.HealthCheckResponse
// @Failure 503 {object} responses.HealthCheckResponse
// @Router /health [get]
func (h *StatusHandler) GetHealthCheck(c *fiber.Ctx) error {
	healthData, isHealthy := h.statusService.GetHealthCheck(c.UserContext())

	status := fiber.StatusOK
	message := "시스템이 정상적으로 작동 중입니다"

	if !isHealthy {
		status = fiber.StatusServiceUnavailable
		message = "공유 캐시에 연결할 수 없습니다"
	}

	response := responses.HealthCheckResponse{
		BaseResponse: responses.BaseResponse{
			Success:   isHealthy,
			Message:   message,
			Timestamp: time.Now(),
		},
		Data: healthData,
	}

	return c.Status(status).JSON(response)
}
