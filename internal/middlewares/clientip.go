package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// proxy headers in trust order, the first populated one wins
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Client-IP",
}

// ClientIP resolves the originating client address behind reverse proxies.
// Headers holding a chain keep only the leftmost hop. Falls back to the
// remote address when no header is present.
func ClientIP(ctx *fiber.Ctx) string {
	for _, header := range clientIPHeaders {
		value := ctx.Get(header)
		if value == "" {
			continue
		}
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			value = value[:idx]
		}
		if ip := strings.TrimSpace(value); ip != "" {
			return ip
		}
	}
	return ctx.IP()
}
