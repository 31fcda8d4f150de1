package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Push clients may name the message they deliver; logging it lets the
// request line be matched with the ingestion outcome.
const sourceUIDHeader = "X-Source-UID"

// RequestLogger logs each request after it completes: 5xx at error, 4xx at
// warn, the rest at debug. Health probes are not logged unless they fail.
func RequestLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "/health" && status < 400 {
			return
		}
		if route == "" {
			route = "unmatched"
		}

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if uid := c.GetHeader(sourceUIDHeader); uid != "" {
			args = append(args, "source_uid", uid)
		}
		if c.Request.ContentLength > 0 {
			args = append(args, "request_bytes", c.Request.ContentLength)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", args...)
		case status >= 400:
			log.Warnw("request rejected", args...)
		default:
			log.Debugw("request served", args...)
		}
	}
}
