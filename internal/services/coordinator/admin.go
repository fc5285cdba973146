package coordinator

import (
	"context"
	"fmt"
	"time"

	"departure-monitor/internal/models"
	"departure-monitor/internal/utils"
)

// PendingRequests 원장의 대기 요청 (오래된 순)
func (c *Coordinator) PendingRequests(ctx context.Context) ([]models.PendingRequest, error) {
	members, err := c.cache.ZRangeWithScores(ctx, pendingKey, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("원장 조회 실패: %w", err)
	}

	pending := make([]models.PendingRequest, 0, len(members))
	for _, m := range members {
		pending = append(pending, models.PendingRequest{
			StationID:   m.Member,
			RequestedAt: time.UnixMilli(int64(m.Score)),
		})
	}
	return pending, nil
}

// InvalidateStations 정류장 캐시와 오래된 사본 삭제
func (c *Coordinator) InvalidateStations(ctx context.Context, stationIDs []string) (int64, error) {
	ids := utils.Slice.SortedUnique(stationIDs)
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)*2)
	for _, id := range ids {
		keys = append(keys, StationKey(id), StaleKey(id))
	}

	deleted, err := c.cache.Del(ctx, keys...)
	if err != nil {
		return 0, fmt.Errorf("정류장 캐시 삭제 실패: %w", err)
	}

	c.logger.Infof("🧹 정류장 캐시 삭제 - 요청 %d건, 삭제된 키 %d개", len(ids), deleted)
	return deleted, nil
}

// Settings 현재 조정 파라미터
func (c *Coordinator) Settings() Settings {
	return c.settings
}

// Ping 공유 캐시 응답 여부 확인
func (c *Coordinator) Ping(ctx context.Context) error {
	if err := c.cache.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrCoordinationUnavailable, err)
	}
	return nil
}

// Backend 공유 캐시 백엔드 이름
func (c *Coordinator) Backend() string {
	return c.cache.Backend()
}
