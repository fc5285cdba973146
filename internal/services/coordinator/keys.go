package coordinator

import (
	"time"

	"departure-monitor/config"
)

// 공유 캐시 키 구성
const (
	stationKeyPrefix = "monitor:station:"
	staleKeyPrefix   = "monitor:stale:"
	lastFetchKey     = "monitor:last_fetch"
	pendingKey       = "monitor:pending"
	fetchLockKey     = "monitor:fetch_lock"
	fetchStatusKey   = "monitor:fetch_status"
)

// CoordinationKeys 크기 제한 캐시에서 축출되면 안 되는 조정용 키
func CoordinationKeys() []string {
	return []string{fetchLockKey, lastFetchKey, fetchStatusKey}
}

// StationKey 정류장 캐시 키
func StationKey(stationID string) string {
	return stationKeyPrefix + stationID
}

// StaleKey 정류장 오래된 사본 키
func StaleKey(stationID string) string {
	return staleKeyPrefix + stationID
}

// Settings 조정 동작 파라미터
type Settings struct {
	CacheTTL            time.Duration
	StaleCacheTTL       time.Duration
	LockTTL             time.Duration
	StatusTTL           time.Duration
	LedgerTTL           time.Duration
	WaitAttempts        int
	WaitInterval        time.Duration
	MaxStationsPerFetch int
	MinUpstreamInterval time.Duration
}

// SettingsFromConfig 설정에서 조정 파라미터 추출
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CacheTTL:            cfg.Coordinator.CacheTTL,
		StaleCacheTTL:       cfg.Coordinator.StaleCacheTTL,
		LockTTL:             cfg.Coordinator.LockTTL,
		StatusTTL:           cfg.Coordinator.StatusTTL,
		LedgerTTL:           cfg.Coordinator.LedgerTTL,
		WaitAttempts:        cfg.Coordinator.WaitAttempts,
		WaitInterval:        cfg.Coordinator.WaitInterval,
		MaxStationsPerFetch: cfg.Coordinator.MaxStationsPerFetch,
		MinUpstreamInterval: cfg.Upstream.MinInterval,
	}
}
