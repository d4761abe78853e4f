package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-Id"
	RequestIDKey    = "request_id"
)

// RequestLogger writes one access line per request. Failed requests carry
// the operation and code of the AppError the handler recorded.
func RequestLogger(l logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)
		c.Set(RequestIDKey, reqID)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"bytes":      c.Writer.Size(),
		}
		if actorID, ok := c.Get(ActorIDKey); ok {
			fields["actor_id"] = actorID
		}
		if last := c.Errors.Last(); last != nil {
			var ae *utils.AppError
			if errors.As(last.Err, &ae) {
				fields["op"] = ae.Op
				fields["code"] = ae.Code
			}
			fields["error"] = last.Err.Error()
		}
		entry := l.WithFields(fields)

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		case route == "/ping":
			entry.Debug("request")
		default:
			entry.Info("request")
		}
	}
}
