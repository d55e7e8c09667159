package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/homecare-coop/backoffice/internal/auth"
	"github.com/homecare-coop/backoffice/internal/rest"
	"github.com/homecare-coop/backoffice/internal/utils"
	"github.com/homecare-coop/backoffice/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	router *mux.Router
	tokens *auth.TokenIssuer
	users  *user.UserServiceImpl
}

func setupSession(t *testing.T) sessionFixture {
	clock := &utils.MockClock{FixedNow: time.Now()}
	tokens := auth.NewTokenIssuer("middleware-secret", time.Hour, clock)
	users := user.NewUserService(user.NewStubUserRepository())

	r := mux.NewRouter()
	r.Use(sessionMiddleware("session", tokens, users))
	r.HandleFunc("/api/auth/user", authenticated(func(w http.ResponseWriter, r *http.Request) {
		current, _ := user.CurrentUser(r.Context())
		rest.WriteJSON(w, http.StatusOK, map[string]string{"email": current.Email})
	})).Methods("GET")
	r.HandleFunc("/api/clients", authorize(auth.Clients, auth.Create, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})).Methods("POST")

	return sessionFixture{router: r, tokens: tokens, users: users}
}

func (f sessionFixture) sessionFor(t *testing.T, email string, role auth.Role) *http.Cookie {
	created, err := f.users.CreateUser(context.Background(), user.NewUser{Email: email, Role: role, Password: "long-password"})
	require.NoError(t, err)
	token, _, err := f.tokens.Issue(created.Uid, created.Role)
	require.NoError(t, err)
	return &http.Cookie{Name: "session", Value: token}
}

func (f sessionFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSessionMiddleware(t *testing.T) {
	f := setupSession(t)

	t.Run("resolves the cookie into the current user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(f.sessionFor(t, "ada@coop.example", auth.RoleStaff))

		w := f.serve(req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ada@coop.example", body["email"])
	})

	t.Run("missing cookie is unauthenticated", func(t *testing.T) {
		w := f.serve(httptest.NewRequest(http.MethodGet, "/api/auth/user", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered token is unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "not-a-jwt"})

		w := f.serve(req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token of a deleted user is unauthenticated", func(t *testing.T) {
		token, _, err := f.tokens.Issue("00000000-0000-0000-0000-000000000000", auth.RoleAdmin)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})

		w := f.serve(req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthorize(t *testing.T) {
	f := setupSession(t)

	t.Run("role holding the permission passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/clients", nil)
		req.AddCookie(f.sessionFor(t, "manager@coop.example", auth.RoleManager))

		w := f.serve(req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("role lacking the permission is forbidden with details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/clients", nil)
		req.AddCookie(f.sessionFor(t, "carer@coop.example", auth.RoleStaff))

		w := f.serve(req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		var body rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Forbidden", body.Error)
		assert.Contains(t, body.Details, "clients:create")
		assert.Contains(t, body.Details, "role staff")
		assert.Contains(t, body.Details, "manager, admin")
	})

	t.Run("anonymous request is unauthenticated", func(t *testing.T) {
		w := f.serve(httptest.NewRequest(http.MethodPost, "/api/clients", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
