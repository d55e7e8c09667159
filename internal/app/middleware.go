package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/auth"
	"github.com/homecare-coop/backoffice/internal/config"
	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/pkg/user"
	log "github.com/sirupsen/logrus"
)

type sessionVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type userLookup interface {
	GetUserByUid(ctx context.Context, uid string) (user.User, error)
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware(cfg.Cors))
	r.Use(sessionMiddleware(cfg.Session.CookieName, deps.Tokens, deps.UserService))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start),
		}).Debug("HTTP request")
	})
}

func corsMiddleware(cfg config.Cors) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// sessionMiddleware resolves the session cookie into the current user.
// Requests without a valid session continue anonymously and are rejected by authorize.
func sessionMiddleware(cookieName string, tokens sessionVerifier, users userLookup) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			cookie, err := req.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, req)
				return
			}

			claims, err := tokens.Verify(cookie.Value)
			if err != nil {
				log.Debugf("ignoring session cookie: %v", err)
				next.ServeHTTP(w, req)
				return
			}

			u, err := users.GetUserByUid(req.Context(), claims.UserUid)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("session user not found: %s", claims.UserUid)
					next.ServeHTTP(w, req)
					return
				}
				log.Errorf("failed to get session user: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, req.WithContext(user.WithUser(req.Context(), u)))
		})
	}
}

// authenticated rejects requests without a session user.
func authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := user.CurrentUser(r.Context()); err != nil {
			rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
			return
		}
		next(w, r)
	}
}

// authorize lets the request through when the session user's role holds the permission.
// The role is read from the stored user so role changes apply to live sessions.
func authorize(resource auth.Resource, action auth.Action, next http.HandlerFunc) http.HandlerFunc {
	permission := auth.Permission{Resource: resource, Action: action}
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := user.CurrentRole(r.Context())
		if err != nil {
			rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
			return
		}
		if !auth.Allowed(role, permission) {
			log.Debugf("role %s denied %s", role, permission)
			rest.WriteError(w, http.StatusForbidden, "Forbidden",
				"role "+string(role)+" lacks "+permission.String()+", required one of: "+joinRoles(auth.RolesFor(permission)))
			return
		}
		next(w, r)
	}
}

func joinRoles(roles []auth.Role) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}
