package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/handler"
    "github.com/iliyamo/project-task-tracker/internal/middleware"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

// RegisterAuth registers the authentication endpoints.  The open group
// under /v1/auth carries the rate limiter so credential stuffing and
// invite-token guessing are throttled per client IP; logout and refresh
// live there too since they authenticate by refresh token rather than by
// the access token middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, issuer *utils.Issuer, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1/auth", limiter)
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/oauth", a.OAuth)
    g.POST("/invite/accept", a.AcceptInvite)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    // /v1/auth/me needs a verified access token.
    me := e.Group("/v1/auth", middleware.JWTAuth(issuer))
    me.GET("/me", a.Me)
}
