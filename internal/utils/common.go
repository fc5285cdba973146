// internal/utils/common.go - 공용 헬퍼 함수 모음
package utils

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StringHelpers 문자열 관련 헬퍼 함수들
type StringHelpers struct{}

var String StringHelpers

// SplitAndTrim 구분자로 분할 후 공백 제거, 빈 항목 제외
func (StringHelpers) SplitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MaskSensitive 민감한 정보 마스킹 (API 키, 비밀번호 등)
func (StringHelpers) MaskSensitive(value string, showStart, showEnd int) string {
	if len(value) <= showStart+showEnd {
		return strings.Repeat("*", len(value))
	}

	start := value[:showStart]
	end := value[len(value)-showEnd:]
	middle := strings.Repeat("*", len(value)-showStart-showEnd)

	return start + middle + end
}

// ConversionHelpers 타입 변환 관련 헬퍼 함수들
type ConversionHelpers struct{}

var Convert ConversionHelpers

// StringToIntWithSuccess 문자열을 int로 변환 (성공 여부 함께 반환)
func (ConversionHelpers) StringToIntWithSuccess(s string, defaultValue int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultValue, false
	}

	if value, err := strconv.Atoi(s); err == nil {
		return value, true
	}
	return defaultValue, false
}

// StringToBoolWithSuccess 문자열을 bool로 변환 (성공 여부 함께 반환)
func (ConversionHelpers) StringToBoolWithSuccess(s string, defaultValue bool) (bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultValue, false
	}

	if value, err := strconv.ParseBool(s); err == nil {
		return value, true
	}
	return defaultValue, false
}

// TimeHelpers 시간 관련 헬퍼 함수들
type TimeHelpers struct{}

var Time TimeHelpers

// FormatDuration 기간을 사용자 친화적 형식으로 변환
func (TimeHelpers) FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d초", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%d분", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%d시간 %d분", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%d일 %d시간", days, hours)
}

// CalculateUptime 시작 시간부터 현재까지의 업타임 계산
func (TimeHelpers) CalculateUptime(startTime time.Time) string {
	if startTime.IsZero() {
		return "정보 없음"
	}
	return Time.FormatDuration(time.Since(startTime))
}

// SliceHelpers 슬라이스 관련 헬퍼 함수들
type SliceHelpers struct{}

var Slice SliceHelpers

// RemoveDuplicateStrings 문자열 슬라이스에서 중복 제거 (입력 순서 유지)
func (SliceHelpers) RemoveDuplicateStrings(slice []string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, item := range slice {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}

// SortedUnique 공백 제거, 중복 제거 후 정렬된 새 슬라이스 반환
func (SliceHelpers) SortedUnique(slice []string) []string {
	cleaned := make([]string, 0, len(slice))
	for _, item := range slice {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	result := Slice.RemoveDuplicateStrings(cleaned)
	sort.Strings(result)
	return result
}

// IDHelpers ID 생성 관련 헬퍼 함수들
type IDHelpers struct{}

var ID IDHelpers

// GenerateRequestID 요청 ID 생성
func (IDHelpers) GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GenerateOwnerToken 락 소유자 토큰 생성
func (IDHelpers) GenerateOwnerToken() string {
	return uuid.NewString()
}
