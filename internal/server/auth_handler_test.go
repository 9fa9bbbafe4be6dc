package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/resume-layout/internal/server/middleware"
	"github.com/jonathan/resume-layout/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) register(t *testing.T, email string) types.LoginResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Asha Rao", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[types.LoginResponse](t, w)
}

func TestAuthHandler_Register(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register(t, "asha@example.com")

	require.NotNil(t, resp.User)
	assert.Equal(t, "asha@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)

	claims, err := env.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "asha@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Other", "email": "asha@example.com", "password": "password123",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "email already registered")
}

func TestAuthHandler_Register_Invalid(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{name: "malformed json", body: "{not json", want: "Invalid request body"},
		{name: "missing name", body: map[string]string{"email": "a@example.com", "password": "password123"}, want: "validation error: Name - required"},
		{name: "bad email", body: map[string]string{"name": "A", "email": "nope", "password": "password123"}, want: "validation error: Email - email"},
		{name: "short password", body: map[string]string{"name": "A", "email": "a@example.com", "password": "short"}, want: "validation error: Password - min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decode[map[string]string](t, w)["error"])
		})
	}
	assert.Empty(t, env.db.users)
}

func TestAuthHandler_Login(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "asha@example.com")

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "asha@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.LoginResponse](t, w)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Token)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "asha@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", decode[map[string]string](t, w)["error"])
}

func TestAuthHandler_Me(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "asha@example.com")

	w := env.do(t, http.MethodGet, "/api/auth/user", registered.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[types.User](t, w)
	assert.Equal(t, registered.User.ID, user.ID)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_Me_TokenHeader(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "asha@example.com")

	req := newJSONRequest(t, http.MethodGet, "/api/auth/user", nil)
	req.Header.Set(middleware.TokenHeader, registered.Token)
	w := serve(env, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Me_DeletedUser(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/auth/user", env.token(t, uuid.New()), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_Required(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/user"},
		{http.MethodGet, "/api/resume"},
		{http.MethodPost, "/api/resume"},
		{http.MethodGet, "/api/resume/" + uuid.NewString()},
		{http.MethodGet, "/api/resume/" + uuid.NewString() + "/layout"},
		{http.MethodGet, "/api/resume/" + uuid.NewString() + "/export"},
		{http.MethodPost, "/api/resume/analyze"},
		{http.MethodPost, "/api/upload"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := env.do(t, rt.method, rt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "no token, authorization denied", decode[map[string]string](t, w)["error"])

			w = env.do(t, rt.method, rt.path, "garbage", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "token is not valid", decode[map[string]string](t, w)["error"])
		})
	}
}
