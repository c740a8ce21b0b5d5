package httpserver

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"hostel_hub/internal/adapters/observability"
	"hostel_hub/internal/app"
	"hostel_hub/internal/domain"
)

const sessionCookie = "session"

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ---- Metrics middleware ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		observability.ObserveHTTP(routePattern(r), r.Method, sw.Status(), time.Since(start))
	})
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			l.Info().
				Str("route", routePattern(r)).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", remoteIP(r)).
				Str("ua", r.UserAgent()).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http_request")
		})
	}
}

// Picks first X-Forwarded-For IP, else X-Real-IP, else RemoteAddr host.
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// ---- Session identity ----

type ctxKey int

const identityKey ctxKey = iota

// Identifier resolves a session token to an identity.
type Identifier interface {
	Identify(token string) (domain.Identity, error)
}

// Authenticate attaches the caller's identity when a valid session token is
// present (Authorization: Bearer, else the session cookie). Invalid tokens
// are treated as anonymous; routes decide whether that is acceptable.
func Authenticate(id Identifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := sessionToken(r); tok != "" {
				if ident, err := id.Identify(tok); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), identityKey, &ident))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// IdentityFrom returns the authenticated identity or nil.
func IdentityFrom(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(identityKey).(*domain.Identity)
	return id
}

// actor returns the identity for service calls; anonymous callers get the
// zero value, which every service rejects with ErrUnauthenticated.
func actor(r *http.Request) domain.Identity {
	if id := IdentityFrom(r.Context()); id != nil {
		return *id
	}
	return domain.Identity{}
}

// ---- Dashboard guard ----

// Guard lets a caller into their own dashboard namespace only; everything
// else is a 302 to the login page or to the caller's dashboard.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFrom(r.Context())
		d := app.ResolveDashboard(id, r.URL.Path)
		role := ""
		if id != nil {
			role = string(id.Role)
		}
		switch {
		case d.Allow:
			observability.ObserveGuard(role, "allow")
			next.ServeHTTP(w, r)
		case id == nil || strings.HasPrefix(d.Redirect, app.LoginPath):
			observability.ObserveGuard(role, "login")
			http.Redirect(w, r, d.Redirect, d.Status)
		default:
			observability.ObserveGuard(role, "redirect")
			http.Redirect(w, r, d.Redirect, d.Status)
		}
	})
}
