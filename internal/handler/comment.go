package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/model"
    "github.com/iliyamo/project-task-tracker/internal/repository"
)

// CommentHandler serves task comments.
type CommentHandler struct {
    Comments *repository.CommentRepo
    Tasks    *repository.TaskRepo
    Activity *repository.ActivityRepo
}

// NewCommentHandler constructs a CommentHandler.
func NewCommentHandler(comments *repository.CommentRepo, tasks *repository.TaskRepo, activity *repository.ActivityRepo) *CommentHandler {
    return &CommentHandler{Comments: comments, Tasks: tasks, Activity: activity}
}

type commentRequest struct {
    Body string `json:"body"`
}

// Create handles POST /v1/tasks/:id/comments.  Anyone who can read the
// task can discuss it.
func (h *CommentHandler) Create(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    taskID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }
    var req commentRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Body = strings.TrimSpace(req.Body)
    if req.Body == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "body is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if ok, err := h.taskVisible(ctx, taskID, uid, role); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create comment"})
    } else if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }

    cm := model.Comment{TaskID: taskID, AuthorID: uid, Body: req.Body}
    if err := h.Comments.Create(ctx, &cm); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create comment"})
    }
    // Activity is best effort here; the comment itself already committed.
    if err := h.Activity.Insert(ctx, taskID, uid, model.ActivityCommented, model.CommentedMeta{CommentID: cm.ID}); err != nil {
        log.Printf("activity: comment event insert failed for task %d: %v", taskID, err)
    }
    return c.JSON(http.StatusCreated, toCommentResponse(cm))
}

// ListByTask handles GET /v1/tasks/:id/comments.
func (h *CommentHandler) ListByTask(c echo.Context) error {
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

    if ok, err := h.taskVisible(ctx, taskID, uid, role); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list comments"})
    } else if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }
    comments, err := h.Comments.ListByTask(ctx, taskID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list comments"})
    }
    out := make([]commentResponse, 0, len(comments))
    for _, cm := range comments {
        out = append(out, toCommentResponse(cm))
    }
    return c.JSON(http.StatusOK, echo.Map{"comments": out})
}

// Update handles PUT /v1/comments/:id.  Authors edit their own comments;
// admins may edit any.
func (h *CommentHandler) Update(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
    }
    var req commentRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Body = strings.TrimSpace(req.Body)
    if req.Body == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "body is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    cm, err := h.Comments.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrCommentNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update comment"})
    }
    if err := authz.CanModifyOwn(role, uid, cm.AuthorID); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }
    if err := h.Comments.Update(ctx, id, req.Body); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update comment"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "comment updated"})
}

// Delete handles DELETE /v1/comments/:id.
func (h *CommentHandler) Delete(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    cm, err := h.Comments.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrCommentNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete comment"})
    }
    if err := authz.CanModifyOwn(role, uid, cm.AuthorID); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }
    if err := h.Comments.Delete(ctx, id); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete comment"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "comment deleted"})
}

// taskVisible checks read scope without materializing the full task.
func (h *CommentHandler) taskVisible(ctx context.Context, taskID, actorID uint64, role authz.Role) (bool, error) {
    t, err := h.Tasks.GetByID(ctx, taskID)
    if err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return false, nil
        }
        return false, err
    }
    ids, err := h.Tasks.AssigneeIDs(ctx, taskID)
    if err != nil {
        return false, err
    }
    return authz.CanReadTask(role, actorID, t.CreatorID, ids), nil
}
