// internal/web/models/responses/status.go
package responses

import (
	"time"

	"departure-monitor/internal/models"
	"departure-monitor/internal/services/coordinator"
)

// StatusData 시스템 상태 데이터
type StatusData struct {
	Status      string              `json:"status"`
	Uptime      string              `json:"uptime"`
	Version     string              `json:"version"`
	Mode        string              `json:"mode"`
	Statistics  coordinator.Stats   `json:"statistics"`
	Config      ConfigInfo          `json:"config"`
	FetchStatus *models.FetchStatus `json:"fetchStatus,omitempty"`
	Archive     ArchiveInfo         `json:"archive"`
}

// ConfigInfo 조정 파라미터 요약
type ConfigInfo struct {
	CacheTTL              string   `json:"cacheTtl"`
	StaleCacheTTL         string   `json:"staleCacheTtl"`
	LockTTL               string   `json:"lockTtl"`
	MinUpstreamInterval   string   `json:"minUpstreamInterval"`
	WaitBudget            string   `json:"waitBudget"`
	MaxStationsPerFetch   int      `json:"maxStationsPerFetch"`
	MaxStationsPerRequest int      `json:"maxStationsPerRequest"`
	RequestTimeout        string   `json:"requestTimeout"`
	LineAllowList         []string `json:"lineAllowList"`
}

// ArchiveInfo 스냅샷 아카이브 상태
type ArchiveInfo struct {
	Enabled bool   `json:"enabled"`
	Index   string `json:"index,omitempty"`
}

// StatusResponse 상태 응답
type StatusResponse struct {
	BaseResponse
	Data StatusData `json:"data"`
}

// HealthData 헬스체크 데이터
type HealthData struct {
	Backend   string    `json:"backend"`
	CacheOK   bool      `json:"cacheOk"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthCheckResponse 헬스체크 응답
type HealthCheckResponse struct {
	BaseResponse
	Data HealthData `json:"data"`
}
