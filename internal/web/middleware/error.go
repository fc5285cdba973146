// internal/web/middleware/error.go
package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"departure-monitor/internal/web/models/responses"
)

// ErrorHandler Fiber 설정용 에러 핸들러 (모든 응답을 JSON 으로)
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	response := responses.NewErrorResponse(getErrorMessage(code), code)
	response.Details = err.Error()

	return c.Status(code).JSON(response)
}

// NotFoundHandler 등록되지 않은 경로 처리
func NotFoundHandler(c *fiber.Ctx) error {
	response := responses.NewErrorResponse(getErrorMessage(fiber.StatusNotFound), fiber.StatusNotFound)
	response.Details = c.Method() + " " + c.Path()
	return c.Status(fiber.StatusNotFound).JSON(response)
}

// getErrorMessage 상태 코드에 따른 사용자 친화적 메시지
func getErrorMessage(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "잘못된 요청입니다"
	case fiber.StatusUnauthorized:
		return "인증이 필요합니다"
	case fiber.StatusForbidden:
		return "접근 권한이 없습니다"
	case fiber.StatusNotFound:
		return "요청한 리소스를 찾을 수 없습니다"
	case fiber.StatusMethodNotAllowed:
		return "허용되지 않은 메서드입니다"
	case fiber.StatusRequestEntityTooLarge:
		return "요청 본문이 너무 큽니다"
	case fiber.StatusInternalServerError:
		return "서버 내부 오류가 발생했습니다"
	case fiber.StatusServiceUnavailable:
		return "서비스를 일시적으로 사용할 수 없습니다"
	case fiber.StatusGatewayTimeout:
		return "게이트웨이 시간 초과입니다"
	default:
		return "예상치 못한 오류가 발생했습니다"
	}
}
