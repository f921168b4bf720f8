package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/model"
    "github.com/iliyamo/project-task-tracker/internal/repository"
)

// SprintHandler serves sprint CRUD inside a project.
type SprintHandler struct {
    Sprints  *repository.SprintRepo
    Projects *repository.ProjectRepo
}

// NewSprintHandler constructs a SprintHandler.
func NewSprintHandler(sprints *repository.SprintRepo, projects *repository.ProjectRepo) *SprintHandler {
    return &SprintHandler{Sprints: sprints, Projects: projects}
}

type sprintRequest struct {
    ProjectID uint64    `json:"project_id"`
    Name      string    `json:"name"`
    StartsAt  time.Time `json:"starts_at"`
    EndsAt    time.Time `json:"ends_at"`
}

// Create handles POST /v1/sprints.
func (h *SprintHandler) Create(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanManageProjects(role) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may create sprints"})
    }
    var req sprintRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.ProjectID == 0 || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "project_id and name are required"})
    }
    if !req.EndsAt.IsZero() && !req.StartsAt.IsZero() && req.EndsAt.Before(req.StartsAt) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "sprint cannot end before it starts"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Projects.GetByID(ctx, req.ProjectID); err != nil {
        if errors.Is(err, repository.ErrProjectNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create sprint"})
    }

    s := model.Sprint{
        ProjectID: req.ProjectID,
        Name:      req.Name,
        StartsAt:  req.StartsAt,
        EndsAt:    req.EndsAt,
        CreatorID: uid,
    }
    if err := h.Sprints.Create(ctx, &s); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create sprint"})
    }
    return c.JSON(http.StatusCreated, toSprintResponse(s))
}

// ListByProject handles GET /v1/projects/:id/sprints.  Members only see
// sprints of projects inside their visibility scope.
func (h *SprintHandler) ListByProject(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    projectID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if role == authz.RoleMember {
        visible, err := h.Projects.IsVisible(ctx, projectID, uid)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list sprints"})
        }
        if !visible {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
        }
    }
    sprints, err := h.Sprints.ListByProject(ctx, projectID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list sprints"})
    }
    return c.JSON(http.StatusOK, echo.Map{"sprints": toSprintResponses(sprints)})
}

// Get handles GET /v1/sprints/:id.
func (h *SprintHandler) Get(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sprint id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    s, err := h.Sprints.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrSprintNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load sprint"})
    }
    if role == authz.RoleMember {
        visible, err := h.Projects.IsVisible(ctx, s.ProjectID, uid)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load sprint"})
        }
        if !visible {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
        }
    }
    return c.JSON(http.StatusOK, toSprintResponse(s))
}

// Update handles PUT /v1/sprints/:id.
func (h *SprintHandler) Update(c echo.Context) error {
    _, role, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanManageProjects(role) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may update sprints"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sprint id"})
    }
    var req sprintRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    if !req.EndsAt.IsZero() && !req.StartsAt.IsZero() && req.EndsAt.Before(req.StartsAt) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "sprint cannot end before it starts"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Sprints.Update(ctx, id, req.Name, req.StartsAt, req.EndsAt); err != nil {
        if errors.Is(err, repository.ErrSprintNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update sprint"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "sprint updated"})
}

// Delete handles DELETE /v1/sprints/:id.
func (h *SprintHandler) Delete(c echo.Context) error {
    _, role, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanManageProjects(role) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may delete sprints"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sprint id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Sprints.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrSprintNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete sprint"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "sprint deleted"})
}
