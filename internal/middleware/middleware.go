package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/CampusTransit/CT-Backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// SessionData is what the middleware needs to know about a resolved session.
type SessionData struct {
	SessionID string
	UserID    string
}

// SessionFetcher resolves a session cookie value to session data. Expiry is
// the store's concern: an expired session simply no longer resolves.
type SessionFetcher interface {
	FindSessionByID(ctx context.Context, id string) (SessionData, error)
}

// SessionMiddleware authenticates requests via the session_id cookie and
// injects the user and session ids into the request context.
func SessionMiddleware(fetcher SessionFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("session_id")
			if err != nil {
				http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
				return
			}

			session, err := fetcher.FindSessionByID(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, "Session expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), utils.ContextUserIDKey, session.UserID)
			ctx = context.WithValue(ctx, utils.ContextSessionIDKey, session.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoginRateLimit limits requests per client IP. Used on the login endpoint
// so credential stuffing can't hammer the upstream auth service.
func LoginRateLimit(r rate.Limit, burst int) func(http.Handler) http.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(r, burst)
			limiters[ip] = lim
		}
		return lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiterFor(clientIP(req)).Allow() {
				http.Error(w, "Too many attempts, slow down", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// OpsAuth guards operational endpoints with basic auth checked against a
// bcrypt hash. With no hash configured the endpoints are disabled outright
// rather than left open.
func OpsAuth(user, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if passwordHash == "" {
				http.Error(w, "Ops endpoints disabled", http.StatusServiceUnavailable)
				return
			}

			gotUser, gotPass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(gotPass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="ops"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx != -1 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
