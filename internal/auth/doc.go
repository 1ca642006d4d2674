// Package auth provides the librarian login and the session plumbing shared
// by the HTML front ends.
//
// It supports two authentication modes:
//   - "none": No authentication required (default), anyone may change the library
//   - "local": A single librarian password; reading stays public, changes need a session
//
// # Configuration
//
//	AUTH_MODE=local
//	AUTH_PASSWORD_HASH=<bcrypt hash>      # see `librarian hash-password`
//	AUTH_SESSION_SECRET=<hex-32-bytes>    # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_SECURE_COOKIES=true              # HTTPS-only cookies
//
// Sessions are also used in "none" mode to carry flash messages between a
// form post and the page it redirects to.
package auth
