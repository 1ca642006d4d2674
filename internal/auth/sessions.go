package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/librarian/internal/config"
)

// Session data keys
const (
	SessionKeyLibrarian = "librarian"
	SessionKeyLoginAt   = "login_at"
	SessionKeyFlashes   = "flashes"
)

func init() {
	// Register types that will be stored in sessions
	gob.Register(time.Time{})
	gob.Register([]string{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager.
// sqlDB should be the SQLite handle underneath GORM; when it is nil the
// sessions live in memory and do not survive a restart.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	if sqlDB != nil {
		// Create sessions table if it doesn't exist
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2 // Half of lifetime for inactivity

	// Configure cookie security
	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax keeps the session on the redirect that follows a form post.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// Login marks the session as belonging to the librarian.
// This should be called after password verification.
func (sm *SessionManager) Login(ctx context.Context) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionKeyLibrarian, true)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

// Logout removes all session data and invalidates the session.
func (sm *SessionManager) Logout(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// IsAuthenticated returns true if the librarian is logged in.
func (sm *SessionManager) IsAuthenticated(ctx context.Context) bool {
	return sm.GetBool(ctx, SessionKeyLibrarian)
}

// LoginAt returns when the librarian logged in, or the zero time.
func (sm *SessionManager) LoginAt(ctx context.Context) time.Time {
	return sm.GetTime(ctx, SessionKeyLoginAt)
}

// Flash queues a message for the next rendered page.
func (sm *SessionManager) Flash(ctx context.Context, message string) {
	flashes, _ := sm.Get(ctx, SessionKeyFlashes).([]string)
	sm.Put(ctx, SessionKeyFlashes, append(flashes, message))
}

// PopFlashes returns the queued messages in order and clears them.
func (sm *SessionManager) PopFlashes(ctx context.Context) []string {
	flashes, _ := sm.Pop(ctx, SessionKeyFlashes).([]string)
	return flashes
}
