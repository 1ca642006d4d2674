package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/config"
)

// ContextKeyLibrarian holds whether the request may change the library.
const ContextKeyLibrarian = "auth_librarian"

// Form posts that only read the library or manage the session itself.
var publicPosts = map[string]bool{
	"/login":       true,
	"/logout":      true,
	"/search_book": true,
	"/search":      true,
}

// Read-only endpoints that still expose more than the catalog.
var protectedPrefixes = []string{
	"/api/audit",
	"/api/tasks",
}

// Middleware enforces the librarian login in local mode: reading the
// library is public, changing it is not.
type Middleware struct {
	sessions *SessionManager
	mode     config.AuthMode
}

// NewMiddleware creates a new authentication middleware. sessions may be
// nil only when the mode is none.
func NewMiddleware(sessions *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{sessions: sessions, mode: cfg.Mode}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.mode != config.AuthModeLocal {
		return func(c *gin.Context) {
			c.Set(ContextKeyLibrarian, true)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		loggedIn := m.sessions != nil && m.sessions.IsAuthenticated(c.Request.Context())
		c.Set(ContextKeyLibrarian, loggedIn)

		if loggedIn || !requiresLogin(c.Request) {
			c.Next()
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		// Send the librarian back to the form they came from.
		next := c.Request.URL.Path
		if c.Request.Method != http.MethodGet {
			if ref, err := url.Parse(c.Request.Referer()); err == nil && isLocalPath(ref.Path) {
				next = ref.Path
			}
		}
		c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(next))
		c.Abort()
	}
}

func requiresLogin(r *http.Request) bool {
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return !publicPosts[r.URL.Path]
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// IsLibrarian reports whether the current request may change the library.
func IsLibrarian(c *gin.Context) bool {
	return c.GetBool(ContextKeyLibrarian)
}
