package handler

import (
    "context"
    "database/sql"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/model"
    "github.com/iliyamo/project-task-tracker/internal/repository"
)

// TaskHandler serves the task lifecycle: CRUD, the status state machine,
// assignee rewrites, subtask listing and the activity trail.  Status and
// assignee changes run inside a single transaction holding a row lock on
// the task, so concurrent conflicting updates serialize instead of
// clobbering each other.
type TaskHandler struct {
    Tasks    *repository.TaskRepo
    Sprints  *repository.SprintRepo
    Users    *repository.UserRepo
    Activity *repository.ActivityRepo
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(tasks *repository.TaskRepo, sprints *repository.SprintRepo, users *repository.UserRepo, activity *repository.ActivityRepo) *TaskHandler {
    return &TaskHandler{Tasks: tasks, Sprints: sprints, Users: users, Activity: activity}
}

type createTaskRequest struct {
    SprintID      uint64     `json:"sprint_id"`
    ParentTaskID  *uint64    `json:"parent_task_id"`
    Title         string     `json:"title"`
    Description   string     `json:"description"`
    Priority      string     `json:"priority"`
    EstimateHours float64    `json:"estimate_hours"`
    DueDate       *time.Time `json:"due_date"`
}

// updateTaskRequest uses pointers so absent fields are distinguishable
// from zero values; only the fields present in the body are applied.
type updateTaskRequest struct {
    Title         *string    `json:"title"`
    Description   *string    `json:"description"`
    Priority      *string    `json:"priority"`
    EstimateHours *float64   `json:"estimate_hours"`
    DueDate       *time.Time `json:"due_date"`
    Status        *string    `json:"status"`
    AssigneeIDs   *[]uint64  `json:"assignee_ids"`
    Force         bool       `json:"force"`
}

var validPriorities = map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true, "CRITICAL": true}

// Create handles POST /v1/tasks.  Any authenticated user may create a
// task; creating one puts it inside the creator's visibility scope.
func (h *TaskHandler) Create(c echo.Context) error {
    uid, _, ok := identity(c)
    if !ok {
        return nil
    }
    var req createTaskRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Title = strings.TrimSpace(req.Title)
    if req.SprintID == 0 || req.Title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "sprint_id and title are required"})
    }
    if req.Priority == "" {
        req.Priority = "MEDIUM"
    }
    if !validPriorities[req.Priority] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "priority must be LOW, MEDIUM, HIGH or CRITICAL"})
    }
    if req.EstimateHours < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "estimate_hours cannot be negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Sprints.GetByID(ctx, req.SprintID); err != nil {
        if errors.Is(err, repository.ErrSprintNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "sprint not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create task"})
    }
    if req.ParentTaskID != nil {
        parent, err := h.Tasks.GetByID(ctx, *req.ParentTaskID)
        if err != nil {
            if errors.Is(err, repository.ErrTaskNotFound) {
                return c.JSON(http.StatusNotFound, echo.Map{"error": "parent task not found"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create task"})
        }
        // Subtasks stay inside their parent's sprint.
        if parent.SprintID != req.SprintID {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent task belongs to a different sprint"})
        }
    }

    t := model.Task{
        SprintID:      req.SprintID,
        ParentTaskID:  req.ParentTaskID,
        Title:         req.Title,
        Description:   req.Description,
        Status:        string(authz.StatusTodo),
        Priority:      req.Priority,
        EstimateHours: req.EstimateHours,
        DueDate:       req.DueDate,
        CreatorID:     uid,
    }
    if err := h.Tasks.Create(ctx, &t); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create task"})
    }
    return c.JSON(http.StatusCreated, toTaskResponse(t, nil))
}

// List handles GET /v1/tasks, scoped to the caller's visibility.
func (h *TaskHandler) List(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var (
        tasks []model.Task
        err   error
    )
    if role == authz.RoleMember {
        tasks, err = h.Tasks.ListVisible(ctx, uid)
    } else {
        tasks, err = h.Tasks.ListAll(ctx)
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list tasks"})
    }
    return c.JSON(http.StatusOK, echo.Map{"tasks": toTaskResponses(tasks)})
}

// ListBySprint handles GET /v1/sprints/:id/tasks.  Members receive only
// the tasks inside the sprint that fall within their visibility scope.
func (h *TaskHandler) ListBySprint(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    sprintID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sprint id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tasks, err := h.Tasks.ListBySprint(ctx, sprintID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list tasks"})
    }
    if role == authz.RoleMember {
        visible := tasks[:0]
        for _, t := range tasks {
            ids, err := h.Tasks.AssigneeIDs(ctx, t.ID)
            if err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list tasks"})
            }
            if authz.CanReadTask(role, uid, t.CreatorID, ids) {
                visible = append(visible, t)
            }
        }
        tasks = visible
    }
    return c.JSON(http.StatusOK, echo.Map{"tasks": toTaskResponses(tasks)})
}

// Get handles GET /v1/tasks/:id.  Out-of-scope tasks answer 404 so their
// existence is not revealed to members.
func (h *TaskHandler) Get(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t, assignees, ok2, err := h.loadVisible(ctx, id, uid, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load task"})
    }
    if !ok2 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }
    return c.JSON(http.StatusOK, toTaskResponse(t, assignees))
}

// ListSubtasks handles GET /v1/tasks/:id/subtasks.
func (h *TaskHandler) ListSubtasks(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    _, _, ok2, err := h.loadVisible(ctx, id, uid, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list subtasks"})
    }
    if !ok2 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }
    subs, err := h.Tasks.ListSubtasks(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list subtasks"})
    }
    return c.JSON(http.StatusOK, echo.Map{"tasks": toTaskResponses(subs)})
}

// Update handles PUT /v1/tasks/:id.  Field edits, a status transition and
// an assignee rewrite may all arrive in one request; the status and
// assignee parts are validated and applied atomically.
func (h *TaskHandler) Update(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }
    var req updateTaskRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    t, assignees, visible, err := h.loadVisible(ctx, id, uid, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load task"})
    }
    if !visible {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }
    if err := authz.CanUpdateTask(role, uid, t.CreatorID, assignees); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }

    // Validate the plain field edits before anything is written.
    if req.Title != nil {
        v := strings.TrimSpace(*req.Title)
        if v == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "title cannot be empty"})
        }
        t.Title = v
    }
    if req.Description != nil {
        t.Description = *req.Description
    }
    if req.Priority != nil {
        if !validPriorities[*req.Priority] {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "priority must be LOW, MEDIUM, HIGH or CRITICAL"})
        }
        t.Priority = *req.Priority
    }
    if req.EstimateHours != nil {
        if *req.EstimateHours < 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "estimate_hours cannot be negative"})
        }
        t.EstimateHours = *req.EstimateHours
    }
    if req.DueDate != nil {
        t.DueDate = req.DueDate
    }

    var newStatus authz.Status
    if req.Status != nil {
        s, okStatus := authz.ParseStatus(*req.Status)
        if !okStatus {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be TODO, IN_PROGRESS, REVIEW or DONE"})
        }
        newStatus = s
    }

    // Resolve the proposed assignee set up front; role lookups do not
    // need the row lock.
    var (
        proposedAssignees []uint64
        rewriteAssignees  bool
    )
    if req.AssigneeIDs != nil {
        proposed := dedupe(*req.AssigneeIDs)
        roles, err := h.Users.RolesByIDs(ctx, proposed)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update task"})
        }
        assigneeRoles := make([]authz.Role, 0, len(proposed))
        for _, aid := range proposed {
            rs, found := roles[aid]
            if !found {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee does not exist"})
            }
            r, _ := authz.ParseRole(rs)
            assigneeRoles = append(assigneeRoles, r)
        }
        if err := authz.CanAssign(role, assigneeRoles); err != nil {
            return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
        }
        rewriteAssignees = true
        proposedAssignees = proposed
    }

    if req.Status != nil || rewriteAssignees {
        tx, err := h.Tasks.DB().BeginTx(ctx, nil)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update task"})
        }
        defer tx.Rollback()

        if req.Status != nil {
            if status, httpErr := h.applyStatusTx(ctx, tx, id, uid, role, newStatus, req.Force); httpErr != nil {
                return c.JSON(httpErr.code, echo.Map{"error": httpErr.msg})
            } else {
                t.Status = status
            }
        }
        if rewriteAssignees {
            if httpErr := h.applyAssigneesTx(ctx, tx, id, uid, proposedAssignees); httpErr != nil {
                return c.JSON(httpErr.code, echo.Map{"error": httpErr.msg})
            }
            assignees = proposedAssignees
        }
        // Field edits commit or roll back together with the transition.
        if err := h.Tasks.UpdateFieldsTx(ctx, tx, &t); err != nil {
            if errors.Is(err, repository.ErrTaskNotFound) {
                return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update task"})
        }
        if err := tx.Commit(); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update task"})
        }
    } else if err := h.Tasks.UpdateFields(ctx, &t); err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update task"})
    }

    fresh, err := h.Tasks.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load task"})
    }
    return c.JSON(http.StatusOK, toTaskResponse(fresh, assignees))
}

// Submit handles PUT /v1/tasks/submit/:id and moves the task into REVIEW.
// This is the path an assignee takes when their work is ready; the DONE
// gate itself stays with managers and admins.
func (h *TaskHandler) Submit(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    t, assignees, visible, err := h.loadVisible(ctx, id, uid, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load task"})
    }
    if !visible {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }
    if err := authz.CanUpdateTask(role, uid, t.CreatorID, assignees); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }

    tx, err := h.Tasks.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update task"})
    }
    defer tx.Rollback()

    if _, httpErr := h.applyStatusTx(ctx, tx, id, uid, role, authz.StatusReview, false); httpErr != nil {
        return c.JSON(httpErr.code, echo.Map{"error": httpErr.msg})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update task"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "task submitted for review"})
}

// Delete handles DELETE /v1/tasks/:id.  Managers and admins only.
func (h *TaskHandler) Delete(c echo.Context) error {
    _, role, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanManageTasks(role) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may delete tasks"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Tasks.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete task"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

// ListActivity handles GET /v1/tasks/:id/activity.
func (h *TaskHandler) ListActivity(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    _, _, visible, err := h.loadVisible(ctx, id, uid, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load activity"})
    }
    if !visible {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }
    logs, err := h.Activity.ListByTask(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load activity"})
    }
    out := make([]activityResponse, 0, len(logs))
    for _, l := range logs {
        out = append(out, toActivityResponse(l))
    }
    return c.JSON(http.StatusOK, echo.Map{"activity": out})
}

// httpError carries a status/message pair out of the tx helpers.
type httpError struct {
    code int
    msg  string
}

// applyStatusTx validates and applies a status transition while the row
// lock is held.  It returns the status actually written.
func (h *TaskHandler) applyStatusTx(ctx context.Context, tx *sql.Tx, taskID, actorID uint64, role authz.Role, to authz.Status, force bool) (string, *httpError) {
    current, err := h.Tasks.GetStatusForUpdateTx(ctx, tx, taskID)
    if err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return "", &httpError{http.StatusNotFound, "task not found"}
        }
        return "", &httpError{http.StatusInternalServerError, "could not update task"}
    }
    from, _ := authz.ParseStatus(current)
    if from == to {
        return current, nil // no-op, nothing written or logged
    }

    var forced bool
    if force {
        forced, err = authz.ForceTransition(role, from, to)
    } else {
        forced, err = authz.CanTransition(role, from, to)
    }
    if err != nil {
        return "", &httpError{denialStatus(err), err.Error()}
    }

    if err := h.Tasks.UpdateStatusTx(ctx, tx, taskID, string(to)); err != nil {
        return "", &httpError{http.StatusInternalServerError, "could not update task"}
    }
    meta := model.StatusChangedMeta{Old: string(from), New: string(to), Forced: forced}
    if err := h.Activity.InsertTx(ctx, tx, taskID, actorID, model.ActivityStatusChanged, meta); err != nil {
        return "", &httpError{http.StatusInternalServerError, "could not update task"}
    }
    return string(to), nil
}

// applyAssigneesTx rewrites the assignee set to exactly `proposed` while
// the assignment rows are locked, and records the delta.
func (h *TaskHandler) applyAssigneesTx(ctx context.Context, tx *sql.Tx, taskID, actorID uint64, proposed []uint64) *httpError {
    current, err := h.Tasks.AssigneeIDsForUpdateTx(ctx, tx, taskID)
    if err != nil {
        return &httpError{http.StatusInternalServerError, "could not update assignees"}
    }
    added, removed := diffIDs(current, proposed)
    if len(added) == 0 && len(removed) == 0 {
        return nil
    }
    if err := h.Tasks.ReplaceAssigneesTx(ctx, tx, taskID, added, removed); err != nil {
        return &httpError{http.StatusInternalServerError, "could not update assignees"}
    }
    meta := model.AssignedMeta{AddedIDs: added, RemovedIDs: removed}
    if err := h.Activity.InsertTx(ctx, tx, taskID, actorID, model.ActivityAssigned, meta); err != nil {
        return &httpError{http.StatusInternalServerError, "could not update assignees"}
    }
    return nil
}

// loadVisible fetches the task and its assignees and evaluates the
// caller's read scope.  ok=false means the task exists outside the scope
// or does not exist at all; the caller answers 404 either way.
func (h *TaskHandler) loadVisible(ctx context.Context, taskID, actorID uint64, role authz.Role) (model.Task, []uint64, bool, error) {
    t, err := h.Tasks.GetByID(ctx, taskID)
    if err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return model.Task{}, nil, false, nil
        }
        return model.Task{}, nil, false, err
    }
    assignees, err := h.Tasks.AssigneeIDs(ctx, taskID)
    if err != nil {
        return model.Task{}, nil, false, err
    }
    if !authz.CanReadTask(role, actorID, t.CreatorID, assignees) {
        return model.Task{}, nil, false, nil
    }
    return t, assignees, true, nil
}

func dedupe(ids []uint64) []uint64 {
    seen := make(map[uint64]bool, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if !seen[id] {
            seen[id] = true
            out = append(out, id)
        }
    }
    return out
}

// diffIDs computes the delta turning current into proposed.
func diffIDs(current, proposed []uint64) (added, removed []uint64) {
    cur := make(map[uint64]bool, len(current))
    for _, id := range current {
        cur[id] = true
    }
    next := make(map[uint64]bool, len(proposed))
    for _, id := range proposed {
        next[id] = true
        if !cur[id] {
            added = append(added, id)
        }
    }
    for _, id := range current {
        if !next[id] {
            removed = append(removed, id)
        }
    }
    return added, removed
}
