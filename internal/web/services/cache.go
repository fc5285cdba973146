// internal/web/services/cache.go
package services

import (
	"context"
	"fmt"

	"departure-monitor/internal/models"
	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/services/storage"
	"departure-monitor/internal/utils"
	webUtils "departure-monitor/internal/web/utils"
)

// SnapshotReader 아카이브된 정류장 스냅샷 조회
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, stationID string) (*storage.SnapshotDocument, bool, error)
	IndexName() string
}

// CacheService 공유 캐시 관리 서비스
type CacheService struct {
	logger      *utils.Logger
	coordinator *coordinator.Coordinator
	archive     SnapshotReader
}

// NewCacheService 캐시 서비스 생성 (archive 는 nil 가능)
func NewCacheService(logger *utils.Logger, coord *coordinator.Coordinator, archive SnapshotReader) *CacheService {
	return &CacheService{
		logger:      logger,
		coordinator: coord,
		archive:     archive,
	}
}

// InvalidateStations 정류장 캐시 삭제
func (s *CacheService) InvalidateStations(ctx context.Context, stationIDs []string) (int64, error) {
	return s.coordinator.InvalidateStations(ctx, stationIDs)
}

// GetPendingRequests 대기 요청 원장 조회
func (s *CacheService) GetPendingRequests(ctx context.Context) ([]models.PendingRequest, error) {
	return s.coordinator.PendingRequests(ctx)
}

// GetLatestSnapshot 아카이브에서 정류장 최신 스냅샷 조회
func (s *CacheService) GetLatestSnapshot(ctx context.Context, stationID string) (*storage.SnapshotDocument, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("%w: 아카이브가 비활성화되어 있습니다", webUtils.ErrUnavailable)
	}

	doc, found, err := s.archive.LatestSnapshot(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: 정류장 %s 스냅샷", webUtils.ErrNotFound, stationID)
	}
	return doc, nil
}
