// internal/web/utils/response.go
package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"departure-monitor/internal/services/coordinator"
	"departure-monitor/internal/web/models/responses"
)

var (
	// ErrValidation 잘못된 요청 (재시도 불필요)
	ErrValidation = errors.New("validation failed")

	// ErrNotFound 요청한 리소스 없음
	ErrNotFound = errors.New("not found")

	// ErrUnavailable 비활성화된 기능
	ErrUnavailable = errors.New("feature unavailable")
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// StatusCodeFor 에러 종류에 따른 HTTP 상태 코드
func StatusCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, coordinator.ErrCoordinationUnavailable),
		errors.Is(err, coordinator.ErrNoDataAvailable):
		return fiber.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

// HandleError 에러 응답 처리
func HandleError(c *fiber.Ctx, err error, message string) error {
	statusCode := StatusCodeFor(err)

	response := responses.NewErrorResponse(message, statusCode)
	response.Details = err.Error()

	return c.Status(statusCode).JSON(response)
}

// HandleValidationError 검증 에러 응답 처리
func HandleValidationError(c *fiber.Ctx, err error, message string) error {
	var details string

	if err != nil {
		// validator 에러인 경우 상세 메시지 생성
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var errorMessages []string
			for _, validationErr := range validationErrors {
				errorMessages = append(errorMessages, formatValidationError(validationErr))
			}
			details = strings.Join(errorMessages, "; ")
		} else {
			details = err.Error()
		}
	}

	response := responses.NewErrorResponse(message, fiber.StatusBadRequest)
	response.Details = details

	return c.Status(fiber.StatusBadRequest).JSON(response)
}

// formatValidationError 검증 에러 메시지 포맷팅
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	if field == "" {
		field = "stationIds"
	}

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s 필드는 필수입니다", field)
	case "min":
		return fmt.Sprintf("%s 필드는 최소 %s 이상이어야 합니다", field, err.Param())
	case "max":
		return fmt.Sprintf("%s 필드는 최대 %s 이하여야 합니다", field, err.Param())
	default:
		return fmt.Sprintf("%s 필드가 유효하지 않습니다", field)
	}
}

// ValidateStruct 구조체 검증
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateStationIDs 정류장 ID 목록 검증 (빈 값 불가, 중복 제거 후 1개 이상 maxStations개 이하)
func ValidateStationIDs(ids []string, normalized []string, maxStations int) error {
	if err := validate.Var(ids, "required,min=1,dive,required"); err != nil {
		return err
	}
	return validate.Var(normalized, fmt.Sprintf("required,min=1,max=%d", maxStations))
}

// SendSuccessResponse 성공 응답 전송
func SendSuccessResponse(c *fiber.Ctx, data interface{}, message string) error {
	return c.JSON(responses.NewDataResponse(data, message))
}

// SendListResponse 리스트 응답 전송
func SendListResponse(c *fiber.Ctx, data interface{}, count int, message string) error {
	response := responses.ListResponse{
		BaseResponse: responses.NewSuccessResponse(message),
		Data:         data,
		Count:        count,
	}
	return c.JSON(response)
}

// EntityTag 콘텐츠 해시를 따옴표로 감싼 ETag 값
func EntityTag(hash string) string {
	return `"` + hash + `"`
}

// MatchesETag If-None-Match 헤더가 현재 ETag 와 일치하는지 확인 (약한 비교, 목록 허용)
func MatchesETag(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}

	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag || `"`+candidate+`"` == etag {
			return true
		}
	}
	return false
}
