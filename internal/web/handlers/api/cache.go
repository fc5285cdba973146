// internal/web/handlers/api/cache.go
package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"departure-monitor/internal/web/models/responses"
	"departure-monitor/internal/web/services"
	"departure-monitor/internal/web/utils"
)

// CacheHandler 캐시 관련 API 핸들러
type CacheHandler struct {
	cacheService *services.CacheService
}

// NewCacheHandler 캐시 핸들러 생성
func NewCacheHandler(cacheService *services.CacheService) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
	}
}

// InvalidateStations 정류장 캐시 삭제
// @Summary 정류장 캐시 삭제
// @Description 지정된 정류장의 캐시와 오래된 사본을 삭제합니다 (관리자 전용)
// @Tags cache
// @Accept json
// @Produce json
// @Param request body responses.InvalidateRequest true "정류장 ID 목록"
// @Success 200 {object} responses.DataResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 403 {object} responses.ErrorResponse
// @Router /api/v1/cache/stations [delete]
func (h *CacheHandler) InvalidateStations(c *fiber.Ctx) error {
	var req responses.InvalidateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleValidationError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err), "요청 본문을 해석할 수 없습니다")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.HandleValidationError(c, err, "정류장 ID 목록이 올바르지 않습니다")
	}

	stationIDs := services.NormalizeStationIDs(req.StationIDs)
	deleted, err := h.cacheService.InvalidateStations(c.UserContext(), stationIDs)
	if err != nil {
		return utils.HandleError(c, err, "정류장 캐시 삭제 실패")
	}

	result := responses.InvalidateResult{
		StationIDs:  stationIDs,
		DeletedKeys: deleted,
	}
	return utils.SendSuccessResponse(c, result, "정류장 캐시 삭제 완료")
}

// GetPendingRequests 대기 요청 원장 조회
// @Summary 대기 요청 원장 조회
// @Description 아직 업스트림에서 가져오지 못한 정류장 요청을 오래된 순으로 반환합니다 (관리자 전용)
// @Tags cache
// @Produce json
// @Success 200 {object} responses.ListResponse
// @Router /api/v1/cache/pending [get]
func (h *CacheHandler) GetPendingRequests(c *fiber.Ctx) error {
	pending, err := h.cacheService.GetPendingRequests(c.UserContext())
	if err != nil {
		return utils.HandleError(c, err, "대기 요청 원장 조회 실패")
	}

	return utils.SendListResponse(c, pending, len(pending), "대기 요청 원장 조회 성공")
}

// GetLatestSnapshot 아카이브된 정류장 최신 스냅샷 조회
// @Summary 정류장 스냅샷 조회
// @Description Elasticsearch 아카이브에서 정류장의 마지막 병합 결과를 조회합니다
// @Tags archive
// @Produce json
// @Param stationId path string true "정류장 ID"
// @Success 200 {object} responses.DataResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 503 {object} responses.ErrorResponse
// @Router /api/v1/archive/stations/{stationId} [get]
func (h *CacheHandler) GetLatestSnapshot(c *fiber.Ctx) error {
	stationID := strings.TrimSpace(c.Params("stationId"))
	if stationID == "" {
		return utils.HandleValidationError(c, nil, "stationId 파라미터가 필요합니다")
	}

	doc, err := h.cacheService.GetLatestSnapshot(c.UserContext(), stationID)
	if err != nil {
		return utils.HandleError(c, err, "정류장 스냅샷 조회 실패")
	}

	return utils.SendSuccessResponse(c, doc, "정류장 스냅샷 조회 성공")
}
