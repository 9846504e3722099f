package geosentinel

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Kumarpriyam05/GeoSentinel/apperror"
	"github.com/Kumarpriyam05/GeoSentinel/auth"
	"github.com/Kumarpriyam05/GeoSentinel/store"
)

type contextKey string

const userContextKey contextKey = "user"

// withAuth verifies the bearer credential, loads the account and injects it
// into the request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.writeError(w, apperror.Authentication("Authentication required"))
			return
		}
		identity, err := s.tokens.Verify(auth.StripBearer(header))
		if err != nil {
			s.writeError(w, err)
			return
		}
		user, err := s.accounts.UserByID(r.Context(), identity.UserID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// requireRole guards a handler behind a role. Must run inside withAuth.
func (s *Server) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requestUser(r)
		if user == nil || user.Role != role {
			s.writeError(w, apperror.Authorization("You do not have permission for this action"))
			return
		}
		next(w, r)
	}
}

func requestUser(r *http.Request) *store.User {
	user, _ := r.Context().Value(userContextKey).(*store.User)
	return user
}

func requestIdentity(r *http.Request) auth.Identity {
	user := requestUser(r)
	if user == nil {
		return auth.Identity{}
	}
	return auth.Identity{UserID: user.ID, Role: user.Role}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Websocket upgrades hijack the connection; wrapping the writer
		// would break the Hijacker assertion.
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
