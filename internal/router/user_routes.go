package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/handler"
    "github.com/iliyamo/project-task-tracker/internal/middleware"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

// RegisterUsers registers the account administration endpoints under /v1.
// Role gates are coarse here; per-target rules (for example the ban on
// self-deactivation) are enforced inside the handlers.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, issuer *utils.Issuer) {
    g := e.Group("/v1/users", middleware.JWTAuth(issuer))

    // Any authenticated user: roster for assignee pickers, own profile.
    g.GET("", u.List)
    g.PUT("/me", u.UpdateProfile)
    g.POST("/me/avatar", u.UploadAvatar)

    // Admin-only account management.
    admin := e.Group("/v1/users",
        middleware.JWTAuth(issuer),
        middleware.RequireRole(string(authz.RoleAdmin)),
    )
    admin.POST("/invite", u.Invite)
    admin.PUT("/role/:id", u.UpdateRole)
    admin.DELETE("/:id", u.Delete)

    // Activation toggles are open to managers as well.
    mgmt := e.Group("/v1/users",
        middleware.JWTAuth(issuer),
        middleware.RequireRole(string(authz.RoleAdmin), string(authz.RoleManager)),
    )
    mgmt.PUT("/active/:id", u.SetActive)
}
