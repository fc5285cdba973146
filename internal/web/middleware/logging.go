// internal/web/middleware/logging.go
package middleware

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"departure-monitor/internal/utils"
)

// RequestLogger 요청 로깅 미들웨어 (애플리케이션 로거로 전달, 디버그 레벨에서만 출력)
func RequestLogger(appLogger *utils.Logger) fiber.Handler {
	return logger.New(logger.Config{
		Format:     "${status} - ${method} ${path} (${latency}) ${ip} ${locals:requestId}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     io.Discard,
		Done: func(c *fiber.Ctx, logString []byte) {
			line := strings.TrimSpace(string(logString))
			if c.Response().StatusCode() >= fiber.StatusInternalServerError {
				appLogger.Warnf("📡 %s", line)
				return
			}
			if appLogger.IsDebug() {
				appLogger.Debugf("📡 %s", line)
			}
		},
	})
}
