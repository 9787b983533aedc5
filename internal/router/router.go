package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/eveauth/eve-auth-api/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the credential endpoints.  Unauthenticated
// operations live under /v1/auth and sit behind the rate limiter;
// protected endpoints live under /v1 behind the bearer middleware.
// /v1/users/:id performs its own token-ownership check inside the
// handler, so it is registered without the middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc, bearer echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.Use(limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a Bearer header or a refresh_token body,
	// so it stays outside the bearer middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(bearer)
	auth.GET("/me", a.Me)

	e.GET("/v1/users/:id", a.GetUser)
}
