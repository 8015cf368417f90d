// Package sessionid ties a browser to its in-memory session through an
// HttpOnly cookie. The cookie carries no identity, only the key into the
// session registry.
package sessionid

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName identifies the browser session cookie.
	CookieName = "aivy_sid"

	cookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const sessionIDKey contextKey = iota

var sessionIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// FromContext extracts the session ID injected by Middleware.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

func isValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func setCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func getOrCreate(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && isValidSessionID(c.Value) {
		setCookie(w, c.Value)
		return c.Value
	}

	id := uuid.NewString()
	setCookie(w, id)
	return id
}

// Middleware mints or refreshes the session cookie and puts the session ID
// on the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := getOrCreate(w, r)
		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
