package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthController serves the librarian login and logout.
// It renders "login.html" from the engine's templates.
type AuthController struct {
	passwordHash string
	sessions     *SessionManager
	rateLimiter  *RateLimiter
	audit        *audit.Service
}

// NewAuthController creates a new authentication controller.
func NewAuthController(cfg config.Auth, sessions *SessionManager, auditService *audit.Service) *AuthController {
	return &AuthController{
		passwordHash: cfg.PasswordHash,
		sessions:     sessions,
		rateLimiter:  NewRateLimiter(RateLimitConfig{}),
		audit:        auditService,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	next := sanitizeRedirectPath(c.Query("next"))
	if ac.sessions.IsAuthenticated(c.Request.Context()) {
		c.Redirect(http.StatusFound, next)
		return
	}
	ac.renderLogin(c, http.StatusOK, next, "")
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		ac.renderLogin(c, http.StatusTooManyRequests, next, "Too many login attempts. Please try again later.")
		return
	}

	ctx := c.Request.Context()
	if err := CheckPassword(c.PostForm("password"), ac.passwordHash); err != nil {
		ac.rateLimiter.RecordFailure(clientIP)
		ac.audit.LogAuth(ctx, "login", false)

		if !errors.Is(err, ErrInvalidPassword) {
			ac.renderLogin(c, http.StatusInternalServerError, next, "Login is misconfigured")
			return
		}
		ac.renderLogin(c, http.StatusUnauthorized, next, "Invalid password")
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP)
	if err := ac.sessions.Login(ctx); err != nil {
		ac.renderLogin(c, http.StatusInternalServerError, next, "Failed to create session")
		return
	}
	ac.audit.LogAuth(ctx, "login", true)

	c.Redirect(http.StatusSeeOther, next)
}

// Logout ends the librarian session.
func (ac *AuthController) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if ac.sessions.IsAuthenticated(ctx) {
		ac.audit.LogAuth(ctx, "logout", true)
	}
	if err := ac.sessions.Logout(ctx); err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (ac *AuthController) renderLogin(c *gin.Context, status int, next, errMsg string) {
	c.HTML(status, "login.html", gin.H{
		"Title":     "Librarian login",
		"Next":      next,
		"CSRFToken": GetCSRFToken(c),
		"Error":     errMsg,
	})
}
