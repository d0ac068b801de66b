package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const redacted = "[redacted]"

// scrub hides credentials before headers are logged.
func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "authorization") || strings.Contains(lower, "cookie") {
			clone[k] = []string{redacted}
		}
	}
	return clone
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		reqHeaders, _ := json.Marshal(scrub(c.Request.Header))
		log.Debug("incoming request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("origin", c.GetHeader("Origin")),
			zap.ByteString("hdr", reqHeaders),
		)

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		respStatus := c.Writer.Status()

		// aborted by CORS or auth middleware
		if c.IsAborted() {
			log.Warn("aborted",
				zap.Int("status", respStatus),
				zap.Duration("latency", latency),
				zap.String("method", method),
				zap.String("path", path),
			)
			return
		}

		for _, e := range c.Errors {
			log.Error("handler error",
				zap.Int("status", respStatus),
				zap.Error(e.Err),
				zap.String("path", path),
			)
		}

		log.Info("completed",
			zap.Int("status", respStatus),
			zap.Duration("latency", latency),
			zap.String("method", method),
			zap.String("path", path),
		)
	}
}
