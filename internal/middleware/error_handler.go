package middleware

import (
	"io"
	"net/http"
	"time"

	"tookio/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// scope adds the request and tenant identity to ev. Claims are only present
// once JWTAuth has run, so callers read them after c.Next.
func scope(ev *zerolog.Event, c *gin.Context) *zerolog.Event {
	ev = ev.Str("request_id", c.GetString(RequestIDKey))
	if claims := GetClaims(c); claims != nil {
		ev = ev.Str("shop_id", claims.ShopID).
			Str("user_id", claims.UserID).
			Str("role", claims.Role)
	}
	return ev
}

// ErrorHandler turns errors attached with c.Error into a safe 500 when the
// handler did not write a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		scope(log.Error(), c).
			Str("route", c.FullPath()).
			Str("method", c.Request.Method).
			Int("error_count", len(c.Errors)).
			Err(err.Err).
			Msg("unhandled error")

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
		}
	}
}

// Recovery converts a panic into a 500 and logs it against the shop that
// triggered it. Broken client connections are aborted without a body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		scope(log.Error(), c).
			Str("route", c.FullPath()).
			Str("method", c.Request.Method).
			Interface("panic", recovered).
			Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	})
}

// Logger writes one line per request. 4xx responses log at warn, 5xx at error.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		scope(ev, c).
			Str("method", c.Request.Method).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
