package config

import (
	"log"
	"os"
	"strings"
	"time"

	"departure-monitor/internal/utils"
)

// getEnv 환경변수 값을 가져오거나 기본값 반환
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv 환경변수에서 정수값을 가져오거나 기본값 반환
func getIntEnv(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	result, success := utils.Convert.StringToIntWithSuccess(value, defaultValue)

	if value != "" && !success {
		log.Printf("환경변수 %s 값이 올바르지 않습니다 ('%s'). 기본값 %d를 사용합니다.", key, value, defaultValue)
	}
	return result
}

// getBoolEnv 환경변수에서 불린값을 가져오거나 기본값 반환
func getBoolEnv(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	result, success := utils.Convert.StringToBoolWithSuccess(value, defaultValue)

	if value != "" && !success {
		log.Printf("환경변수 %s 값이 올바르지 않습니다 ('%s'). 기본값 %t를 사용합니다.", key, value, defaultValue)
	}
	return result
}

// getList 쉼표로 구분된 환경변수를 리스트로 파싱 (중복 제거)
func getList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return append([]string(nil), defaultValue...)
	}
	return utils.Slice.RemoveDuplicateStrings(utils.String.SplitAndTrim(raw, ","))
}

// getSeconds 환경변수에서 초 단위 duration 파싱
func getSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getIntEnv(key, defaultSeconds)) * time.Second
}

// getMillis 환경변수에서 밀리초 단위 duration 파싱
func getMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getIntEnv(key, defaultMillis)) * time.Millisecond
}

// maskSensitive 민감한 정보 마스킹
func maskSensitive(value string) string {
	if value == "" {
		return "없음"
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return utils.String.MaskSensitive(value, 2, 2)
}
