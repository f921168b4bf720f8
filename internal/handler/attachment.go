package handler

import (
    "context"
    "errors"
    "fmt"
    "io"
    "log"
    "net/http"
    "path/filepath"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/model"
    "github.com/iliyamo/project-task-tracker/internal/repository"
    "github.com/iliyamo/project-task-tracker/internal/storage"
)

// maxAttachmentBytes caps task attachments at 10 MiB.
const maxAttachmentBytes = 10 << 20

// AttachmentHandler serves file attachments on tasks.  The bytes live in
// the storage backend; the database only holds metadata.
type AttachmentHandler struct {
    Attachments *repository.AttachmentRepo
    Tasks       *repository.TaskRepo
    Activity    *repository.ActivityRepo
    Uploads     storage.Uploader
}

// NewAttachmentHandler constructs an AttachmentHandler.
func NewAttachmentHandler(attachments *repository.AttachmentRepo, tasks *repository.TaskRepo, activity *repository.ActivityRepo, uploads storage.Uploader) *AttachmentHandler {
    return &AttachmentHandler{Attachments: attachments, Tasks: tasks, Activity: activity, Uploads: uploads}
}

// Upload handles POST /v1/tasks/:id/attachments with a multipart "file"
// field.  Anyone who can update the task can attach files to it.
func (h *AttachmentHandler) Upload(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    taskID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
    }
    fh, err := c.FormFile("file")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field is required"})
    }
    if fh.Size > maxAttachmentBytes {
        return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "attachment exceeds 10MB"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    t, err := h.Tasks.GetByID(ctx, taskID)
    if err != nil {
        if errors.Is(err, repository.ErrTaskNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store attachment"})
    }
    assignees, err := h.Tasks.AssigneeIDs(ctx, taskID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store attachment"})
    }
    if err := authz.CanUpdateTask(role, uid, t.CreatorID, assignees); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }

    src, err := fh.Open()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read upload"})
    }
    defer src.Close()
    data, err := io.ReadAll(io.LimitReader(src, maxAttachmentBytes+1))
    if err != nil || int64(len(data)) > maxAttachmentBytes {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read upload"})
    }

    filename := filepath.Base(fh.Filename)
    key := fmt.Sprintf("attachments/%d/%d_%s", taskID, time.Now().UnixNano(), filename)
    url, err := h.Uploads.Upload(ctx, key, data)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store attachment"})
    }

    a := model.Attachment{
        TaskID:     taskID,
        UploaderID: uid,
        Filename:   filename,
        URL:        url,
        StorageKey: key,
        SizeBytes:  int64(len(data)),
    }
    if err := h.Attachments.Create(ctx, &a); err != nil {
        // Roll the object back so storage does not accumulate orphans.
        if delErr := h.Uploads.Delete(ctx, key); delErr != nil {
            log.Printf("storage: orphan cleanup failed for %s: %v", key, delErr)
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store attachment"})
    }
    if err := h.Activity.Insert(ctx, taskID, uid, model.ActivityAttachmentAdded, model.AttachmentAddedMeta{Filename: filename}); err != nil {
        log.Printf("activity: attachment event insert failed for task %d: %v", taskID, err)
    }
    return c.JSON(http.StatusCreated, toAttachmentResponse(a))
}

// ListByTask handles GET /v1/tasks/:id/attachments.
func (h *AttachmentHandler) ListByTask(c echo.Context) error {
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
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list attachments"})
    }
    assignees, err := h.Tasks.AssigneeIDs(ctx, taskID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list attachments"})
    }
    if !authz.CanReadTask(role, uid, t.CreatorID, assignees) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
    }

    attachments, err := h.Attachments.ListByTask(ctx, taskID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list attachments"})
    }
    out := make([]attachmentResponse, 0, len(attachments))
    for _, a := range attachments {
        out = append(out, toAttachmentResponse(a))
    }
    return c.JSON(http.StatusOK, echo.Map{"attachments": out})
}

// Delete handles DELETE /v1/attachments/:id.  Uploaders remove their own
// files; admins may remove any.
func (h *AttachmentHandler) Delete(c echo.Context) error {
    uid, role, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid attachment id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    a, err := h.Attachments.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrAttachmentNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "attachment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete attachment"})
    }
    if err := authz.CanModifyOwn(role, uid, a.UploaderID); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }
    if err := h.Attachments.Delete(ctx, id); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete attachment"})
    }
    if err := h.Uploads.Delete(ctx, a.StorageKey); err != nil {
        log.Printf("storage: delete failed for %s: %v", a.StorageKey, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "attachment deleted"})
}
