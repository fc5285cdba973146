// internal/web/models/responses/monitor.go
package responses

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StationIDList 정류장 ID 목록 (JSON 문자열 또는 숫자 허용, 숫자는 문자열로 변환)
type StationIDList []string

// UnmarshalJSON 배열 요소를 문자열로 정규화 (앞뒤 공백 제거)
func (l *StationIDList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("stationIds는 배열이어야 합니다: %w", err)
	}

	ids := make([]string, 0, len(items))
	for i, item := range items {
		id, err := stationIDFromJSON(item)
		if err != nil {
			return fmt.Errorf("stationIds[%d]: %w", i, err)
		}
		ids = append(ids, id)
	}

	*l = ids
	return nil
}

func stationIDFromJSON(item json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(item, &text); err == nil {
		return strings.TrimSpace(text), nil
	}

	decoder := json.NewDecoder(bytes.NewReader(item))
	decoder.UseNumber()

	var number json.Number
	if err := decoder.Decode(&number); err != nil {
		return "", fmt.Errorf("문자열 또는 숫자여야 합니다 (%s)", string(item))
	}
	return number.String(), nil
}

// MonitorRequest 모니터 조회 요청 본문
type MonitorRequest struct {
	StationIDs StationIDList `json:"stationIds"`
}

// InvalidateRequest 캐시 삭제 요청 본문
type InvalidateRequest struct {
	StationIDs StationIDList `json:"stationIds" validate:"required,min=1,dive,required"`
}

// InvalidateResult 캐시 삭제 결과
type InvalidateResult struct {
	StationIDs  []string `json:"stationIds"`
	DeletedKeys int64    `json:"deletedKeys"`
}
