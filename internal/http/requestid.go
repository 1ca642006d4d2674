package http

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/librarian/internal/audit"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-Id"

	// ContextKeyRequestID holds the request id in the gin context.
	ContextKeyRequestID = "request_id"
)

// RequestIDMiddleware stamps every request with an id, echoes it in the
// response and hands it to the audit log through the request context.
// Server errors are logged with the id so they can be matched to audit rows.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		ctx := audit.WithRequestInfo(c.Request.Context(), audit.RequestInfo{
			RequestID: requestID,
			IPAddress: c.ClientIP(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if status := c.Writer.Status(); status >= 500 {
			log.Printf("[REQUEST %s] %s %s -> %d", requestID, c.Request.Method, c.Request.URL.Path, status)
		}
	}
}
