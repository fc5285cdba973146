// internal/web/handlers/api/monitor.go
package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"departure-monitor/internal/web/models/responses"
	"departure-monitor/internal/web/services"
	"departure-monitor/internal/web/utils"
)

// MonitorHandler 출발 모니터 API 핸들러
type MonitorHandler struct {
	monitorService *services.MonitorService
	maxStations    int
}

// NewMonitorHandler 모니터 핸들러 생성
func NewMonitorHandler(monitorService *services.MonitorService, maxStations int) *MonitorHandler {
	return &MonitorHandler{
		monitorService: monitorService,
		maxStations:    maxStations,
	}
}

// GetMonitors 정류장 목록의 병합 출발 정보 조회
// @Summary 출발 모니터 조회
// @Description 정류장 ID 목록의 병합된 출발 정보를 반환합니다 (If-None-Match 일치 시 304)
// @Tags monitors
// @Accept json
// @Produce json
// @Param request body responses.MonitorRequest true "정류장 ID 목록"
// @Success 200 {object} models.MergedMonitorResponse
// @Success 304
// @Failure 400 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /api/v1/monitors [post]
func (h *MonitorHandler) GetMonitors(c *fiber.Ctx) error {
	var req responses.MonitorRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleValidationError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err), "요청 본문을 해석할 수 없습니다")
	}

	stationIDs := services.NormalizeStationIDs(req.StationIDs)
	if err := utils.ValidateStationIDs(req.StationIDs, stationIDs, h.maxStations); err != nil {
		return utils.HandleValidationError(c, err, "정류장 ID 목록이 올바르지 않습니다")
	}

	resolution, err := h.monitorService.GetMonitors(c.UserContext(), stationIDs)
	if err != nil {
		return utils.HandleError(c, err, "출발 정보 조회 실패")
	}

	etag := utils.EntityTag(resolution.Response.ContentHash())
	c.Set(fiber.HeaderETag, etag)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Monitor-Role", string(resolution.Role))

	if utils.MatchesETag(c.Get(fiber.HeaderIfNoneMatch), etag) {
		return c.SendStatus(fiber.StatusNotModified)
	}

	return c.JSON(resolution.Response)
}
