package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/config"
	"github.com/ovaphlow/pitchfork/service-community/internal/corporation"
	"github.com/ovaphlow/pitchfork/service-community/internal/event"
	"github.com/ovaphlow/pitchfork/service-community/internal/project"
	"github.com/ovaphlow/pitchfork/service-community/internal/respond"
	"github.com/ovaphlow/pitchfork/service-community/internal/skill"
	"github.com/ovaphlow/pitchfork/service-community/internal/token"
	"github.com/ovaphlow/pitchfork/service-community/internal/user"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

const requestIDHeader = "X-Request-ID"

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware logs every request at debug level with its request id.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", w.Header().Get(requestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// RequestIDMiddleware echoes the client's X-Request-ID or assigns a ksuid.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" || len(id) > 64 {
				id = utilities.NewKSUID()
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// RecoverMiddleware turns a handler panic into a logged 500.
func RecoverMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						panic(v)
					}
					logger.Errorw("panic serving request",
						"request_id", w.Header().Get(requestIDHeader),
						"method", r.Method,
						"path", r.URL.Path,
						"panic", v,
						zap.Stack("stack"),
					)
					respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';")
			}
			// HSTS only over TLS.
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Pinger is satisfied by *sqlx.DB; health reports 503 when it fails.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// RegisterRoutes builds the services and mounts every endpoint under
// cfg.HTTP.BasePath using the standard library's http.ServeMux.
func RegisterRoutes(cfg config.Config, logger *zap.SugaredLogger, db *sqlx.DB) http.Handler {
	hasher := utilities.BcryptHasher{Cost: cfg.Auth.BcryptCost}
	tokens := token.NewService(db, cfg.Auth)
	corps := corporation.NewService(db, hasher)
	skills := skill.NewService(db)
	users := user.NewService(db, hasher, tokens, corps, skills)
	projects := project.NewService(db)
	events := event.NewService(db)

	auth := access.NewAuthenticator(tokens, users.Repo(), corps.Repo(), logger)

	userHandler := user.NewHandler(users, logger)
	corpHandler := corporation.NewHandler(corps, logger)
	skillHandler := skill.NewHandler(skills, logger)
	projectHandler := project.NewHandler(projects, logger)
	eventHandler := event.NewHandler(events, logger)

	base := strings.TrimRight(cfg.HTTP.BasePath, "/")
	mux := http.NewServeMux()
	public := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+base+path, h)
	}
	private := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+base+path, auth.Middleware(h))
	}

	public("GET /health", healthHandler(db))

	public("POST /users", userHandler.Register)
	public("POST /users/token", userHandler.Token)
	public("POST /users/token/refresh", userHandler.Refresh)
	public("POST /corporations", corpHandler.Register)

	private("GET /users/me", userHandler.Me)
	private("POST /users/corporation", userHandler.LinkCorporation)
	private("POST /users/add-skill-by-id", skillHandler.AddByID)
	private("POST /users/add-skill-by-title", skillHandler.AddByTitle)

	private("GET /skills", skillHandler.List)
	private("POST /skills", skillHandler.Create)

	private("GET /projects", projectHandler.List)
	private("POST /projects", projectHandler.Create)
	private("GET /projects/{id}", projectHandler.Detail)
	private("PATCH /projects/{id}", projectHandler.Update)
	private("DELETE /projects/{id}", projectHandler.Delete)
	private("GET /projects/{id}/participants", projectHandler.Participants)
	private("POST /projects/{id}/participants", projectHandler.Join)

	private("GET /events", eventHandler.List)
	private("POST /events", eventHandler.Create)
	private("GET /events/{id}", eventHandler.Detail)
	private("POST /events/register", eventHandler.Register)

	// outermost first: request id, logging, panic recovery, security headers
	var handler http.Handler = mux
	handler = SecurityHeadersMiddleware()(handler)
	handler = RecoverMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}
