package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/handler"
    "github.com/iliyamo/project-task-tracker/internal/middleware"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

// RegisterTasks registers the task lifecycle endpoints plus comments,
// time logs and attachments under /v1.
func RegisterTasks(e *echo.Echo, t *handler.TaskHandler, cm *handler.CommentHandler, tl *handler.TimeLogHandler, at *handler.AttachmentHandler, issuer *utils.Issuer) {
    g := e.Group("/v1", middleware.JWTAuth(issuer))

    // ---- Tasks ----
    g.POST("/tasks", t.Create)
    g.GET("/tasks", t.List)
    g.GET("/tasks/:id", t.Get)
    g.PUT("/tasks/:id", t.Update)
    g.PUT("/tasks/submit/:id", t.Submit)
    g.DELETE("/tasks/:id", t.Delete)
    g.GET("/tasks/:id/subtasks", t.ListSubtasks)
    g.GET("/tasks/:id/activity", t.ListActivity)
    g.GET("/sprints/:id/tasks", t.ListBySprint)

    // ---- Comments ----
    g.POST("/tasks/:id/comments", cm.Create)
    g.GET("/tasks/:id/comments", cm.ListByTask)
    g.PUT("/comments/:id", cm.Update)
    g.DELETE("/comments/:id", cm.Delete)

    // ---- Time logs ----
    g.POST("/tasks/:id/timelogs", tl.Create)
    g.GET("/tasks/:id/timelogs", tl.ListByTask)
    g.PUT("/timelogs/:id", tl.Update)
    g.DELETE("/timelogs/:id", tl.Delete)

    // ---- Attachments ----
    g.POST("/tasks/:id/attachments", at.Upload)
    g.GET("/tasks/:id/attachments", at.ListByTask)
    g.DELETE("/attachments/:id", at.Delete)
}
