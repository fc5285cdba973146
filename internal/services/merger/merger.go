// internal/services/merger/merger.go - 업스트림 모니터 응답을 정류장 단위로 병합
package merger

import (
	"sort"
	"strings"

	"departure-monitor/internal/models"
)

// MaxDeparturesPerLine 노선별 최대 출발 건수
const MaxDeparturesPerLine = 3

// LineAllowList 허용 노선 목록 (대소문자 무시)
type LineAllowList map[string]struct{}

// NewLineAllowList 노선 이름 목록으로 허용 목록 생성
func NewLineAllowList(names []string) LineAllowList {
	allow := make(LineAllowList, len(names))
	for _, name := range names {
		key := normalizeLineName(name)
		if key != "" {
			allow[key] = struct{}{}
		}
	}
	return allow
}

// Allows 노선 허용 여부
func (a LineAllowList) Allows(name string) bool {
	_, ok := a[normalizeLineName(name)]
	return ok
}

// Names 정렬된 허용 노선 이름
func (a LineAllowList) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeResult 병합 결과
type MergeResult struct {
	Stations []models.StationMonitor
	// Dropped 정류장 ID가 없어 버려진 모니터 항목 수 (호출자가 경고 로그)
	Dropped int
}

// ByID 정류장 ID로 조회용 맵
func (r MergeResult) ByID() map[string]models.StationMonitor {
	byID := make(map[string]models.StationMonitor, len(r.Stations))
	for _, station := range r.Stations {
		byID[station.StationID] = station
	}
	return byID
}

// Merge 원본 응답을 정류장별 레코드로 병합 (순수 함수, 입력 순서와 무관한 결과)
//
// 1. 허용 목록에 없는 노선/차량의 출발 제거
// 2. 출발이 없는 노선 제거
// 3. 노선별 출발을 제공자 순서대로 최대 3건 유지
// 4. 같은 정류장 ID의 모니터 항목을 하나로 합침
func Merge(raw *models.RawMonitorResponse, allow LineAllowList) MergeResult {
	result := MergeResult{Stations: []models.StationMonitor{}}
	if raw == nil {
		return result
	}

	byID := make(map[string]*models.StationMonitor)

	for _, monitor := range raw.Data.Monitors {
		stationID := monitor.StationID()
		if stationID == "" {
			result.Dropped++
			continue
		}

		station, exists := byID[stationID]
		if !exists {
			station = &models.StationMonitor{
				StationID: stationID,
				Lines:     []models.LineMonitor{},
			}
			byID[stationID] = station
		}

		for _, rawLine := range monitor.Lines {
			line, ok := filterLine(rawLine, monitor.LocationStop.Properties.Attributes.RBL, allow)
			if ok {
				station.Lines = append(station.Lines, line)
			}
		}
	}

	for _, station := range byID {
		sortLines(station.Lines)
		result.Stations = append(result.Stations, *station)
	}

	sort.Slice(result.Stations, func(i, j int) bool {
		return result.Stations[i].StationID < result.Stations[j].StationID
	})

	normalizeStationMetadata(raw, result.Stations)

	return result
}

// filterLine 허용 목록과 출발 건수 제한 적용
func filterLine(raw models.RawLine, stopID int, allow LineAllowList) (models.LineMonitor, bool) {
	if !allow.Allows(raw.Name) {
		return models.LineMonitor{}, false
	}

	departures := make([]models.Departure, 0, MaxDeparturesPerLine)
	for _, dep := range raw.Departures.Departure {
		// 다른 노선 차량이 배정된 출발은 그 노선 기준으로 필터링
		if dep.Vehicle != nil && dep.Vehicle.Name != "" && !allow.Allows(dep.Vehicle.Name) {
			continue
		}

		departures = append(departures, models.Departure{
			TimePlanned: dep.DepartureTime.TimePlanned,
			TimeReal:    dep.DepartureTime.TimeReal,
			Countdown:   dep.DepartureTime.Countdown,
		})
		if len(departures) == MaxDeparturesPerLine {
			break
		}
	}

	if len(departures) == 0 {
		return models.LineMonitor{}, false
	}

	return models.LineMonitor{
		Name:              raw.Name,
		Towards:           strings.TrimSpace(raw.Towards),
		Direction:         raw.Direction,
		Platform:          raw.Platform,
		StopID:            stopID,
		Type:              raw.Type,
		LineID:            raw.LineID,
		BarrierFree:       raw.BarrierFree,
		RealtimeSupported: raw.RealtimeSupported,
		Departures:        departures,
	}, true
}

// sortLines (노선, 방향, 플랫폼, 행선지, 승강장 ID, 첫 출발) 순 정렬
func sortLines(lines []models.LineMonitor) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		if a.Towards != b.Towards {
			return a.Towards < b.Towards
		}
		if a.StopID != b.StopID {
			return a.StopID < b.StopID
		}
		return firstPlanned(a) < firstPlanned(b)
	})
}

// normalizeStationMetadata 정류장별 제목/좌표를 입력 순서와 무관하게 결정
// (가장 작은 승강장 ID를 가진 항목의 값 사용)
func normalizeStationMetadata(raw *models.RawMonitorResponse, stations []models.StationMonitor) {
	type pick struct {
		rbl         int
		title       string
		coordinates []float64
		set         bool
	}

	picks := make(map[string]*pick, len(stations))
	for _, monitor := range raw.Data.Monitors {
		stationID := monitor.StationID()
		if stationID == "" {
			continue
		}

		props := monitor.LocationStop.Properties
		current, exists := picks[stationID]
		if !exists {
			current = &pick{}
			picks[stationID] = current
		}

		if !current.set || isBetterPick(props.Attributes.RBL, props.Title, current.rbl, current.title) {
			current.rbl = props.Attributes.RBL
			current.title = props.Title
			current.coordinates = monitor.LocationStop.Geometry.Coordinates
			current.set = true
		}
	}

	for i := range stations {
		if p, ok := picks[stations[i].StationID]; ok {
			stations[i].Title = p.title
			if len(p.coordinates) > 0 {
				stations[i].Coordinates = append([]float64(nil), p.coordinates...)
			} else {
				stations[i].Coordinates = nil
			}
		}
	}
}

func firstPlanned(line models.LineMonitor) string {
	if len(line.Departures) == 0 {
		return ""
	}
	return line.Departures[0].TimePlanned
}

func isBetterPick(rbl int, title string, currentRBL int, currentTitle string) bool {
	if rbl != currentRBL {
		return rbl < currentRBL
	}
	return title < currentTitle
}

func normalizeLineName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
