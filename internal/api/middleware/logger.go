package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RequestLogger returns a gin middleware that logs every request with its
// status, latency and caller
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		entry := log.With().
			Int("status", statusCode).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Logger()

		switch {
		case statusCode >= 500:
			entry.Error().Msg("Server error")
		case statusCode >= 400:
			entry.Warn().Msg("Client error")
		default:
			entry.Info().Msg("Request processed")
		}
	}
}
