// internal/web/services/status.go
package services

import (
	"context"
	"time"

	"departure-monitor/config"
	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/utils"
	"departure-monitor/internal/web/models/responses"
)

// Version 서비스 버전
const Version = "1.0.0"

// StatusService 상태 관련 서비스
type StatusService struct {
	config      *config.Config
	logger      *utils.Logger
	coordinator *coordinator.Coordinator
	archive     SnapshotReader
	startTime   time.Time
}

// NewStatusService 상태 서비스 생성 (archive 는 nil 가능)
func NewStatusService(
	cfg *config.Config,
	logger *utils.Logger,
	coord *coordinator.Coordinator,
	archive SnapshotReader,
) *StatusService {
	return &StatusService{
		config:      cfg,
		logger:      logger,
		coordinator: coord,
		archive:     archive,
		startTime:   time.Now(),
	}
}

// GetSystemStatus 시스템 상태 조회
func (s *StatusService) GetSystemStatus(ctx context.Context) responses.StatusData {
	settings := s.coordinator.Settings()

	statusData := responses.StatusData{
		Status:     "running",
		Uptime:     utils.Time.CalculateUptime(s.startTime),
		Version:    Version,
		Mode:       s.config.Mode,
		Statistics: s.coordinator.Stats(),
		Config: responses.ConfigInfo{
			CacheTTL:              settings.CacheTTL.String(),
			StaleCacheTTL:         settings.StaleCacheTTL.String(),
			LockTTL:               settings.LockTTL.String(),
			MinUpstreamInterval:   settings.MinUpstreamInterval.String(),
			WaitBudget:            s.config.MaxWaiterLatency().String(),
			MaxStationsPerFetch:   settings.MaxStationsPerFetch,
			MaxStationsPerRequest: s.config.MaxStationsPerRequest,
			RequestTimeout:        s.config.RequestTimeout.String(),
			LineAllowList:         s.config.LineAllowList,
		},
		Archive: responses.ArchiveInfo{Enabled: s.archive != nil},
	}

	if s.archive != nil {
		statusData.Archive.Index = s.archive.IndexName()
	}

	if status, ok := s.coordinator.CurrentStatus(ctx); ok {
		statusData.FetchStatus = &status
	}

	return statusData
}

// GetHealthCheck 공유 캐시 응답 여부 확인
func (s *StatusService) GetHealthCheck(ctx context.Context) (responses.HealthData, bool) {
	healthData := responses.HealthData{
		Backend:   s.coordinator.Backend(),
		CacheOK:   true,
		CheckedAt: time.Now(),
	}

	if err := s.coordinator.Ping(ctx); err != nil {
		s.logger.Warnf("⚠️ 헬스체크 실패: %v", err)
		healthData.CacheOK = false
		healthData.Error = err.Error()
	}

	return healthData, healthData.CacheOK
}
