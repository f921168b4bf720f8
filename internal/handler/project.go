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

// ProjectHandler serves project CRUD.  Admins and managers manage
// projects; members only read the ones they can see through their tasks.
type ProjectHandler struct {
    Projects *repository.ProjectRepo
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(projects *repository.ProjectRepo) *ProjectHandler {
    return &ProjectHandler{Projects: projects}
}

type projectRequest struct {
    Name        string `json:"name"`
    Description string `json:"description"`
}

// Create handles POST /v1/projects.
func (h *ProjectHandler) Create(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanManageProjects(role) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may create projects"})
    }
    var req projectRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p := model.Project{Name: req.Name, Description: req.Description, CreatorID: uid}
    if err := h.Projects.Create(ctx, &p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create project"})
    }
    return c.JSON(http.StatusCreated, toProjectResponse(p))
}

// List handles GET /v1/projects.  The result set is scoped by role:
// members only receive projects containing a task they created or are
// assigned to.
func (h *ProjectHandler) List(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var (
        projects []model.Project
        err      error
    )
    if role == authz.RoleMember {
        projects, err = h.Projects.ListVisible(ctx, uid)
    } else {
        projects, err = h.Projects.ListAll(ctx)
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list projects"})
    }
    return c.JSON(http.StatusOK, echo.Map{"projects": toProjectResponses(projects)})
}

// Get handles GET /v1/projects/:id with the same member scoping as List.
// A project outside a member's scope answers 404, not 403, so its
// existence is not revealed.
func (h *ProjectHandler) Get(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if role == authz.RoleMember {
        visible, err := h.Projects.IsVisible(ctx, id, uid)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load project"})
        }
        if !visible {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
        }
    }
    p, err := h.Projects.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrProjectNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load project"})
    }
    return c.JSON(http.StatusOK, toProjectResponse(p))
}

// Update handles PUT /v1/projects/:id.
func (h *ProjectHandler) Update(c echo.Context) error {
    _, role, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanManageProjects(role) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may update projects"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
    }
    var req projectRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Projects.Update(ctx, id, req.Name, req.Description); err != nil {
        if errors.Is(err, repository.ErrProjectNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update project"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "project updated"})
}

// Delete handles DELETE /v1/projects/:id.  Sprints and tasks underneath
// go with it through foreign-key cascades.
func (h *ProjectHandler) Delete(c echo.Context) error {
    _, role, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanManageProjects(role) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may delete projects"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Projects.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrProjectNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete project"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
