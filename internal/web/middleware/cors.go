// internal/web/middleware/cors.go
package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSConfig CORS 설정 반환 (ETag 노출, If-None-Match 허용)
func CORSConfig() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,HEAD,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,If-None-Match,X-Request-ID,X-Admin-Key",
		ExposeHeaders:    "ETag,X-Request-ID,X-Monitor-Role",
		AllowCredentials: false,
		MaxAge:           86400, // 24시간
	})
}
