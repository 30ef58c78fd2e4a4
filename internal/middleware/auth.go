package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys under which the authenticated identity is stored.  Identity
// is owned by the external provider; this service only verifies the session
// tokens it issues and never mints tokens of its own.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// Auth returns an Echo middleware that validates a Bearer session token and
// injects the token's subject (the provider's user id) and email claim into
// the request context.  The provided secret must match the signing secret
// configured at the identity provider.  Handlers access the identity via
// CurrentUserID and CurrentUserEmail.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid claims"})
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token subject"})
			}

			c.Set(ContextUserID, sub)
			if email, ok := claims["email"].(string); ok {
				c.Set(ContextUserEmail, email)
			}
			return next(c)
		}
	}
}

// RequireAdmin returns a middleware that restricts a route group to the
// configured administrator.  The admin is identified by the email claim on
// the verified session token, mirroring how the upstream provider models a
// single-admin deployment.  It assumes Auth has already run.
func RequireAdmin(adminEmail string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, ok := c.Get(ContextUserEmail).(string)
			if !ok || email == "" || !strings.EqualFold(email, adminEmail) {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "not authorized"})
			}
			return next(c)
		}
	}
}

// CurrentUserID extracts the authenticated user's id from the context.
// It returns an empty string when the request is unauthenticated.
func CurrentUserID(c echo.Context) string {
	if v, ok := c.Get(ContextUserID).(string); ok {
		return v
	}
	return ""
}

// CurrentUserEmail extracts the authenticated user's email, if present.
func CurrentUserEmail(c echo.Context) string {
	if v, ok := c.Get(ContextUserEmail).(string); ok {
		return v
	}
	return ""
}
