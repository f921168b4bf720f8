package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/handler"
    "github.com/iliyamo/project-task-tracker/internal/middleware"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

// RegisterProjects registers project and sprint endpoints under /v1.  All
// roles may read (handlers narrow members to their visibility scope);
// write access is checked per handler so denials carry a useful message.
func RegisterProjects(e *echo.Echo, p *handler.ProjectHandler, s *handler.SprintHandler, issuer *utils.Issuer) {
    g := e.Group("/v1", middleware.JWTAuth(issuer))

    // ---- Projects ----
    g.POST("/projects", p.Create)
    g.GET("/projects", p.List)
    g.GET("/projects/:id", p.Get)
    g.PUT("/projects/:id", p.Update)
    g.DELETE("/projects/:id", p.Delete)

    // ---- Sprints ----
    g.POST("/sprints", s.Create)
    g.GET("/projects/:id/sprints", s.ListByProject)
    g.GET("/sprints/:id", s.Get)
    g.PUT("/sprints/:id", s.Update)
    g.DELETE("/sprints/:id", s.Delete)
}
