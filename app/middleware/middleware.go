// Package middleware holds the gateway's HTTP middleware.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pressroom/app/guard"
	"pressroom/app/metrics"
	"pressroom/app/models"
	"pressroom/app/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID tags every request with an id, reusing the caller's when given.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Logger logs information about each request
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("took", time.Since(start)),
			}
			if id := GetRequestID(r.Context()); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Warn("request", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}

// Recoverer recovers from panics and logs the error
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("request_id", GetRequestID(r.Context())),
						zap.Stack("stack"))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON sets the Content-Type header to application/json for API routes
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isJSONPath(r.URL.Path) {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

func isJSONPath(p string) bool {
	for _, prefix := range []string{"/api", "/dashboard"} {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// SessionStore is what RequireRole reads and, for a corrupt profile, clears.
type SessionStore interface {
	Snapshot() session.Snapshot
	Clear() error
}

// Denial is the body of a gated request that was turned away.
type Denial struct {
	Error    string       `json:"error"`
	Reason   guard.Reason `json:"reason"`
	Redirect string       `json:"redirect"`
}

// RequireRole lets a request through when the cached session passes the
// guard for roles. Any logged-in, verified and active user passes when roles
// is empty.
func RequireRole(store SessionStore, m *metrics.Metrics, logger *zap.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Check(store.Snapshot(), roles...)
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}
			if d.ClearSession {
				if err := store.Clear(); err != nil {
					logger.Warn("clear corrupt session", zap.Error(err))
				}
			}
			m.GuardDenied(string(d.Reason))
			logger.Info("guard denied",
				zap.String("path", r.URL.Path),
				zap.String("reason", string(d.Reason)),
				zap.String("request_id", GetRequestID(r.Context())))

			status := http.StatusUnauthorized
			if d.Reason == guard.ReasonRoleMismatch {
				status = http.StatusForbidden
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(Denial{
				Error:    denialMessage(d.Reason),
				Reason:   d.Reason,
				Redirect: d.Redirect,
			})
		})
	}
}

func denialMessage(r guard.Reason) string {
	switch r {
	case guard.ReasonNoToken:
		return "login required"
	case guard.ReasonCorruptUser:
		return "session is unreadable, log in again"
	case guard.ReasonUnverified:
		return "verify your email address first"
	case guard.ReasonInactive:
		return "account is not active"
	case guard.ReasonRoleMismatch:
		return "not allowed for your role"
	}
	return "access denied"
}
