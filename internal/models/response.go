package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// MergedMonitorResponse 클라이언트에 반환되는 병합 응답
type MergedMonitorResponse struct {
	Stations          []StationMonitor `json:"stations"`
	Message           string           `json:"message"`
	Timestamp         time.Time        `json:"timestamp"`
	Partial           bool             `json:"partial"`
	StaleStationIDs   []string         `json:"staleStationIds,omitempty"`
	MissingStationIDs []string         `json:"missingStationIds,omitempty"`
}

// canonicalMonitorPayload 해시 계산용 정규화 표현 (timestamp, message 제외)
type canonicalMonitorPayload struct {
	Stations []StationMonitor `json:"stations"`
	Partial  bool             `json:"partial"`
	Stale    []string         `json:"stale"`
	Missing  []string         `json:"missing"`
}

// ContentHash 정류장 ID 순으로 정렬된 표현의 SHA-256 (ETag 용)
func (r *MergedMonitorResponse) ContentHash() string {
	stations := make([]StationMonitor, len(r.Stations))
	copy(stations, r.Stations)
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].StationID < stations[j].StationID
	})

	payload := canonicalMonitorPayload{
		Stations: stations,
		Partial:  r.Partial,
		Stale:    sortedCopy(r.StaleStationIDs),
		Missing:  sortedCopy(r.MissingStationIDs),
	}

	// 구조체 필드만 포함되므로 마샬링은 실패하지 않음
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// StationIDs 응답에 포함된 정류장 ID 목록
func (r *MergedMonitorResponse) StationIDs() []string {
	ids := make([]string, 0, len(r.Stations))
	for _, station := range r.Stations {
		ids = append(ids, station.StationID)
	}
	return ids
}

func sortedCopy(values []string) []string {
	result := make([]string, len(values))
	copy(result, values)
	sort.Strings(result)
	return result
}
