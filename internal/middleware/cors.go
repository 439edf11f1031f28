package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows any origin outside production. In production only the listed
// origins are accepted; an empty list rejects every cross-origin request.
func CORS(allowedOrigins []string, production bool) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	switch {
	case !production:
		cfg.AllowAllOrigins = true
	case len(allowedOrigins) > 0:
		cfg.AllowOrigins = allowedOrigins
	default:
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	cfg.AddAllowMethods("PATCH")
	cfg.AddAllowHeaders("Authorization", "Idempotency-Key", RequestIDHeader)
	cfg.AddExposeHeaders(RequestIDHeader)
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
