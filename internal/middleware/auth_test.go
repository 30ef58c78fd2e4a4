package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func runAuthed(token string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.String(http.StatusOK, "through") }
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	_ = handler(c)
	return rec, c
}

func TestAuthAcceptsValidToken(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user_42", "email": "ada@example.com"})

	rec, c := runAuthed(token, Auth(testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_42", CurrentUserID(c))
	assert.Equal(t, "ada@example.com", CurrentUserEmail(c))
}

func TestAuthRejects(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not.a.jwt"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{"sub": "user_42"})},
		{"missing subject", signToken(t, testSecret, jwt.MapClaims{"email": "ada@example.com"})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, c := runAuthed(tc.token, Auth(testSecret))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, CurrentUserID(c))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	adminToken := signToken(t, testSecret, jwt.MapClaims{"sub": "user_1", "email": "Admin@Example.com"})
	userToken := signToken(t, testSecret, jwt.MapClaims{"sub": "user_2", "email": "someone@example.com"})

	// Matching is case-insensitive on the email claim.
	rec, _ := runAuthed(adminToken, Auth(testSecret), RequireAdmin("admin@example.com"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = runAuthed(userToken, Auth(testSecret), RequireAdmin("admin@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Without Auth there is no email in context; the gate stays closed.
	rec, _ = runAuthed("", RequireAdmin("admin@example.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
