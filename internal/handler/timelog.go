package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/model"
    "github.com/iliyamo/project-task-tracker/internal/repository"
)

// TimeLogHandler serves time tracking entries on tasks.
type TimeLogHandler struct {
    TimeLogs *repository.TimeLogRepo
    Tasks    *repository.TaskRepo
    Activity *repository.ActivityRepo
}

// NewTimeLogHandler constructs a TimeLogHandler.
func NewTimeLogHandler(timeLogs *repository.TimeLogRepo, tasks *repository.TaskRepo, activity *repository.ActivityRepo) *TimeLogHandler {
    return &TimeLogHandler{TimeLogs: timeLogs, Tasks: tasks, Activity: activity}
}

type timeLogRequest struct {
    Hours    float64 `json:"hours"`
    LoggedOn string  `json:"logged_on"` // YYYY-MM-DD, defaults to today
    Note     string  `json:"note"`
}

// Create handles POST /v1/tasks/:id/timelogs.  Members may only log hours
// against tasks they are assigned to; being the creator is not enough.
func (h *TimeLogHandler) Create(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    taskID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }
    var req timeLogRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Hours <= 0 || req.Hours > 24 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "hours must be between 0 and 24"})
    }
    loggedOn := time.Now().UTC().Truncate(24 * time.Hour)
    if req.LoggedOn != "" {
        d, err := time.Parse("2006-01-02", req.LoggedOn)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "logged_on must be YYYY-MM-DD"})
        }
        loggedOn = d
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t, err := h.Tasks.GetByID(ctx, taskID)
    if err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not log time"})
    }
    assignees, err := h.Tasks.AssigneeIDs(ctx, taskID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not log time"})
    }
    // Tasks outside the caller's read scope stay hidden; only a visible
    // task can produce a permission denial.
    if !authz.CanReadTask(role, uid, t.CreatorID, assignees) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }
    if err := authz.CanLogTime(role, uid, assignees); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }

    tl := model.TimeLog{TaskID: taskID, UserID: uid, Hours: req.Hours, LoggedOn: loggedOn, Note: req.Note}
    if err := h.TimeLogs.Create(ctx, &tl); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not log time"})
    }
    if err := h.Activity.Insert(ctx, taskID, uid, model.ActivityTimeLogged, model.TimeLoggedMeta{Hours: req.Hours}); err != nil {
        log.Printf("activity: time log event insert failed for task %d: %v", taskID, err)
    }
    return c.JSON(http.StatusCreated, toTimeLogResponse(tl))
}

// ListByTask handles GET /v1/tasks/:id/timelogs and includes the total.
func (h *TimeLogHandler) ListByTask(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    taskID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t, err := h.Tasks.GetByID(ctx, taskID)
    if err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list time logs"})
    }
    assignees, err := h.Tasks.AssigneeIDs(ctx, taskID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list time logs"})
    }
    if !authz.CanReadTask(role, uid, t.CreatorID, assignees) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }

    logs, err := h.TimeLogs.ListByTask(ctx, taskID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list time logs"})
    }
    out := make([]timeLogResponse, 0, len(logs))
    var total float64
    for _, tl := range logs {
        total += tl.Hours
        out = append(out, toTimeLogResponse(tl))
    }
    return c.JSON(http.StatusOK, echo.Map{"time_logs": out, "total_hours": total})
}

// Update handles PUT /v1/timelogs/:id.
func (h *TimeLogHandler) Update(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time log id"})
    }
    var req timeLogRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Hours <= 0 || req.Hours > 24 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "hours must be between 0 and 24"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tl, err := h.TimeLogs.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrTimeLogNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "time log not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update time log"})
    }
    if err := authz.CanModifyOwn(role, uid, tl.UserID); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }
    if err := h.TimeLogs.Update(ctx, id, req.Hours, req.Note); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update time log"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "time log updated"})
}

// Delete handles DELETE /v1/timelogs/:id.
func (h *TimeLogHandler) Delete(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time log id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tl, err := h.TimeLogs.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrTimeLogNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "time log not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete time log"})
    }
    if err := authz.CanModifyOwn(role, uid, tl.UserID); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }
    if err := h.TimeLogs.Delete(ctx, id); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete time log"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "time log deleted"})
}
