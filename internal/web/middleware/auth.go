// internal/web/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"departure-monitor/internal/utils"
	"departure-monitor/internal/web/models/responses"
)

// AdminAuth 관리자 인증 미들웨어 (키가 비어있으면 관리자 라우트 전체 차단)
func AdminAuth(adminKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if adminKey == "" {
			return c.Status(fiber.StatusForbidden).JSON(
				responses.NewErrorResponse("관리자 키가 설정되지 않았습니다", fiber.StatusForbidden))
		}

		apiKey := c.Get("X-Admin-Key")
		if apiKey == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Admin ") {
				apiKey = strings.TrimPrefix(auth, "Admin ")
			}
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminKey)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(
				responses.NewErrorResponse("관리자 권한이 필요합니다", fiber.StatusForbidden))
		}

		c.Locals("admin", true)
		return c.Next()
	}
}

// RequestIDMiddleware 요청 ID 미들웨어
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = utils.ID.GenerateRequestID()
		}

		c.Set("X-Request-ID", requestID)
		c.Locals("requestId", requestID)

		return c.Next()
	}
}
