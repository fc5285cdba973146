package models

// StationMonitor 물리 정류장 하나의 병합된 출발 정보
type StationMonitor struct {
	StationID   string        `json:"stationId"`
	Title       string        `json:"title,omitempty"`
	Coordinates []float64     `json:"coordinates,omitempty"`
	Lines       []LineMonitor `json:"lines"`
}

// LineMonitor 정류장의 노선/방향별 출발 정보 (출발은 최대 3건)
type LineMonitor struct {
	Name              string      `json:"name"`
	Towards           string      `json:"towards"`
	Direction         string      `json:"direction"`
	Platform          string      `json:"platform,omitempty"`
	StopID            int         `json:"stopId,omitempty"`
	Type              string      `json:"type,omitempty"`
	LineID            int         `json:"lineId,omitempty"`
	BarrierFree       bool        `json:"barrierFree"`
	RealtimeSupported bool        `json:"realtimeSupported"`
	Departures        []Departure `json:"departures"`
}

// Departure 개별 출발
type Departure struct {
	TimePlanned string `json:"timePlanned,omitempty"`
	TimeReal    string `json:"timeReal,omitempty"`
	Countdown   int    `json:"countdown"`
}

// DepartureCount 정류장 전체 출발 건수
func (s StationMonitor) DepartureCount() int {
	count := 0
	for _, line := range s.Lines {
		count += len(line.Departures)
	}
	return count
}
