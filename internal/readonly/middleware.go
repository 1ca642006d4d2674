// Package readonly freezes the library: pages and the JSON API keep serving
// reads while every change is refused.
package readonly

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyReadOnly exposes the mode to templates.
const ContextKeyReadOnly = "read_only"

const blockedMessage = "The library is read-only right now"

// Non-GET requests that never change the library.
var allowedPaths = map[string]bool{
	"/login":       true,
	"/logout":      true,
	"/search_book": true,
	"/search":      true,
}

// Middleware blocks write operations when the library is read-only.
type Middleware struct {
	enabled bool
}

// NewMiddleware creates a read-only mode middleware.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyReadOnly, m.enabled)

		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if allowedPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		m.respondBlocked(c)
	}
}

// StatusHandler serves GET /api/readonly/status.
func (m *Middleware) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"read_only": m.enabled})
}

func (m *Middleware) respondBlocked(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     blockedMessage,
			"read_only": true,
		})
		return
	}

	c.String(http.StatusForbidden, blockedMessage)
	c.Abort()
}
