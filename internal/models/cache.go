package models

import "time"

// CacheEntry 정류장별 캐시 항목 (매 갱신마다 전체 덮어쓰기)
type CacheEntry struct {
	StationID  string         `json:"stationId"`
	Record     StationMonitor `json:"mergedRecord"`
	WrittenAt  time.Time      `json:"writtenAt"`
	TTLSeconds int            `json:"ttlSeconds"`
}

// Age 기록 이후 경과 시간
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.WrittenAt)
}

// PendingRequest 원장(정렬 집합)의 대기 요청 - score = RequestedAt(ms)
type PendingRequest struct {
	StationID   string    `json:"stationId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// FetchState 페치 사이클 상태
type FetchState string

const (
	FetchStateIdle     FetchState = "idle"
	FetchStateFetching FetchState = "fetching"
	FetchStateDone     FetchState = "done"
)

// FetchStatus 락 소유자가 게시하는 짧은 TTL의 진행 상태
type FetchStatus struct {
	State               FetchState `json:"state"`
	RequestedStationIDs []string   `json:"requestedStationIds"`
	FetchedStationIDs   []string   `json:"fetchedStationIds"`
	Timestamp           time.Time  `json:"timestamp"`
	Error               string     `json:"error,omitempty"`
}

// Failed 업스트림 실패로 끝난 사이클 여부
func (s FetchStatus) Failed() bool {
	return s.State == FetchStateDone && s.Error != ""
}

// Covers 요청 정류장 목록이 ids 를 모두 포함하는지 확인
func (s FetchStatus) Covers(ids []string) bool {
	requested := make(map[string]struct{}, len(s.RequestedStationIDs))
	for _, id := range s.RequestedStationIDs {
		requested[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := requested[id]; !ok {
			return false
		}
	}
	return true
}
