package models

import "strings"

// 업스트림 실시간 모니터 API 원본 응답 구조체들
// 응답 형태: { "data": { "monitors": [...] }, "message": {...} }

// RawMonitorResponse 업스트림 모니터 API 응답
type RawMonitorResponse struct {
	Data    RawMonitorData `json:"data"`
	Message RawMessage     `json:"message"`
}

// RawMonitorData 응답의 data 필드
type RawMonitorData struct {
	Monitors []RawMonitor `json:"monitors"`
}

// RawMessage 제공자 응답 메시지 (messageCode 1 = 정상)
type RawMessage struct {
	Value       string `json:"value"`
	MessageCode int    `json:"messageCode"`
	ServerTime  string `json:"serverTime"`
}

// IsSuccess 제공자 메시지 코드 확인 (메시지 없음도 정상으로 취급)
func (m RawMessage) IsSuccess() bool {
	return m.MessageCode == 0 || m.MessageCode == 1
}

// RawMonitor 플랫폼/방향 단위 모니터 항목
type RawMonitor struct {
	LocationStop RawLocationStop `json:"locationStop"`
	Lines        []RawLine       `json:"lines"`
}

// StationID 물리 정류장 식별자 추출 (없으면 빈 문자열)
func (m RawMonitor) StationID() string {
	return strings.TrimSpace(m.LocationStop.Properties.Name)
}

// RawLocationStop 정류장 위치 정보 (GeoJSON Feature)
type RawLocationStop struct {
	Type       string            `json:"type"`
	Geometry   RawGeometry       `json:"geometry"`
	Properties RawStopProperties `json:"properties"`
}

// RawGeometry 좌표 정보
type RawGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// RawStopProperties 정류장 속성 (name = 물리 정류장 ID)
type RawStopProperties struct {
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	Municipality string            `json:"municipality"`
	Type         string            `json:"type"`
	Attributes   RawStopAttributes `json:"attributes"`
}

// RawStopAttributes 플랫폼 단위 속성
type RawStopAttributes struct {
	RBL int `json:"rbl"` // 플랫폼(승강장) ID
}

// RawLine 노선별 출발 정보
type RawLine struct {
	Name              string        `json:"name"`
	Towards           string        `json:"towards"`
	Direction         string        `json:"direction"`
	Platform          string        `json:"platform"`
	RichtungsID       string        `json:"richtungsId"`
	BarrierFree       bool          `json:"barrierFree"`
	RealtimeSupported bool          `json:"realtimeSupported"`
	TrafficJam        bool          `json:"trafficjam"`
	Type              string        `json:"type"`
	LineID            int           `json:"lineId"`
	Departures        RawDepartures `json:"departures"`
}

// RawDepartures 출발 목록 래퍼
type RawDepartures struct {
	Departure []RawDeparture `json:"departure"`
}

// RawDeparture 개별 출발 (제공자 순서 = 출발 시간 순서)
type RawDeparture struct {
	DepartureTime RawDepartureTime `json:"departureTime"`
	Vehicle       *RawVehicle      `json:"vehicle,omitempty"`
}

// RawDepartureTime 출발 시각 및 카운트다운(분)
type RawDepartureTime struct {
	TimePlanned string `json:"timePlanned"`
	TimeReal    string `json:"timeReal"`
	Countdown   int    `json:"countdown"`
}

// RawVehicle 차량 정보 (노선과 다른 차량이 배정되는 경우 존재)
type RawVehicle struct {
	Name              string `json:"name"`
	Towards           string `json:"towards"`
	Direction         string `json:"direction"`
	BarrierFree       bool   `json:"barrierFree"`
	RealtimeSupported bool   `json:"realtimeSupported"`
}
