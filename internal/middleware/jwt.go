package middleware // middleware provides reusable HTTP middleware for the API

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eveauth/eve-auth-api/internal/auth"
)

// BearerAuth returns an Echo middleware that validates the Bearer
// access token on each request and injects the authenticated identity
// into the request context under "user_id" (uint64) and "email".  The
// validator performs the full check: signature, expiry and the token
// store revocation cross-reference, so a stolen-but-revoked token is
// rejected before it reaches a handler.  Every token failure is a
// plain 401 with no detail about the reason.
func BearerAuth(v *auth.Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := v.Validate(ctx, raw)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
				// Store outage: distinct from 401 so clients know to retry.
				c.Logger().Errorf("token validation unavailable: %v", err)
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "token check unavailable"})
			}
			userID, err := claims.UserID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", userID)
			c.Set("email", claims.Email)
			return next(c)
		}
	}
}
