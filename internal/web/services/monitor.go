// internal/web/services/monitor.go
package services

import (
	"context"
	"time"

	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/utils"
)

// MonitorResolver 정류장 목록을 병합 응답으로 해석하는 조정자
type MonitorResolver interface {
	Resolve(ctx context.Context, stationIDs []string) (*coordinator.Resolution, error)
}

// MonitorService 모니터 조회 서비스
type MonitorService struct {
	resolver MonitorResolver
	logger   *utils.Logger
	timeout  time.Duration
}

// NewMonitorService 모니터 서비스 생성 (timeout = 요청 전체 처리 한도)
func NewMonitorService(resolver MonitorResolver, logger *utils.Logger, timeout time.Duration) *MonitorService {
	return &MonitorService{
		resolver: resolver,
		logger:   logger,
		timeout:  timeout,
	}
}

// GetMonitors 정규화된 정류장 목록 조회
func (s *MonitorService) GetMonitors(ctx context.Context, stationIDs []string) (*coordinator.Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resolution, err := s.resolver.Resolve(ctx, stationIDs)
	if err != nil {
		s.logger.Warnf("⚠️ 모니터 조회 실패 (정류장 %d개): %v", len(stationIDs), err)
		return nil, err
	}

	if resolution.Response.Partial {
		s.logger.Infof("부분 응답 - 역할=%s, 누락 %d건, 오래된 사본 %d건, %v",
			resolution.Role, len(resolution.Response.MissingStationIDs),
			len(resolution.Response.StaleStationIDs), time.Since(start))
	} else {
		s.logger.Debugf("모니터 응답 - 역할=%s, 정류장 %d개, %v",
			resolution.Role, len(resolution.Response.Stations), time.Since(start))
	}
	return resolution, nil
}

// NormalizeStationIDs 정류장 ID 정규화 (공백 제거, 중복 제거, 정렬)
func NormalizeStationIDs(stationIDs []string) []string {
	return utils.Slice.SortedUnique(stationIDs)
}
