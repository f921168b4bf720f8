package handler

import (
    "encoding/json"
    "time"

    "github.com/iliyamo/project-task-tracker/internal/model"
)

// The model structs carry no JSON tags; the response shapes below are the
// public contract of the API and are the only thing handlers serialize.

type projectResponse struct {
    ID          uint64    `json:"id"`
    Name        string    `json:"name"`
    Description string    `json:"description,omitempty"`
    CreatorID   uint64    `json:"creator_id"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectResponse(p model.Project) projectResponse {
    return projectResponse{
        ID:          p.ID,
        Name:        p.Name,
        Description: p.Description,
        CreatorID:   p.CreatorID,
        CreatedAt:   p.CreatedAt,
        UpdatedAt:   p.UpdatedAt,
    }
}

func toProjectResponses(ps []model.Project) []projectResponse {
    out := make([]projectResponse, 0, len(ps))
    for _, p := range ps {
        out = append(out, toProjectResponse(p))
    }
    return out
}

type sprintResponse struct {
    ID        uint64    `json:"id"`
    ProjectID uint64    `json:"project_id"`
    Name      string    `json:"name"`
    StartsAt  time.Time `json:"starts_at"`
    EndsAt    time.Time `json:"ends_at"`
    CreatorID uint64    `json:"creator_id"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toSprintResponse(s model.Sprint) sprintResponse {
    return sprintResponse{
        ID:        s.ID,
        ProjectID: s.ProjectID,
        Name:      s.Name,
        StartsAt:  s.StartsAt,
        EndsAt:    s.EndsAt,
        CreatorID: s.CreatorID,
        CreatedAt: s.CreatedAt,
        UpdatedAt: s.UpdatedAt,
    }
}

func toSprintResponses(ss []model.Sprint) []sprintResponse {
    out := make([]sprintResponse, 0, len(ss))
    for _, s := range ss {
        out = append(out, toSprintResponse(s))
    }
    return out
}

type taskResponse struct {
    ID            uint64     `json:"id"`
    SprintID      uint64     `json:"sprint_id"`
    ParentTaskID  *uint64    `json:"parent_task_id,omitempty"`
    Title         string     `json:"title"`
    Description   string     `json:"description,omitempty"`
    Status        string     `json:"status"`
    Priority      string     `json:"priority"`
    EstimateHours float64    `json:"estimate_hours"`
    DueDate       *time.Time `json:"due_date,omitempty"`
    CreatorID     uint64     `json:"creator_id"`
    AssigneeIDs   []uint64   `json:"assignee_ids,omitempty"`
    CreatedAt     time.Time  `json:"created_at"`
    UpdatedAt     time.Time  `json:"updated_at"`
}

func toTaskResponse(t model.Task, assigneeIDs []uint64) taskResponse {
    return taskResponse{
        ID:            t.ID,
        SprintID:      t.SprintID,
        ParentTaskID:  t.ParentTaskID,
        Title:         t.Title,
        Description:   t.Description,
        Status:        t.Status,
        Priority:      t.Priority,
        EstimateHours: t.EstimateHours,
        DueDate:       t.DueDate,
        CreatorID:     t.CreatorID,
        AssigneeIDs:   assigneeIDs,
        CreatedAt:     t.CreatedAt,
        UpdatedAt:     t.UpdatedAt,
    }
}

func toTaskResponses(ts []model.Task) []taskResponse {
    out := make([]taskResponse, 0, len(ts))
    for _, t := range ts {
        out = append(out, toTaskResponse(t, nil))
    }
    return out
}

type commentResponse struct {
    ID        uint64    `json:"id"`
    TaskID    uint64    `json:"task_id"`
    AuthorID  uint64    `json:"author_id"`
    Body      string    `json:"body"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toCommentResponse(cm model.Comment) commentResponse {
    return commentResponse{
        ID:        cm.ID,
        TaskID:    cm.TaskID,
        AuthorID:  cm.AuthorID,
        Body:      cm.Body,
        CreatedAt: cm.CreatedAt,
        UpdatedAt: cm.UpdatedAt,
    }
}

type timeLogResponse struct {
    ID        uint64    `json:"id"`
    TaskID    uint64    `json:"task_id"`
    UserID    uint64    `json:"user_id"`
    Hours     float64   `json:"hours"`
    LoggedOn  time.Time `json:"logged_on"`
    Note      string    `json:"note,omitempty"`
    CreatedAt time.Time `json:"created_at"`
}

func toTimeLogResponse(tl model.TimeLog) timeLogResponse {
    return timeLogResponse{
        ID:        tl.ID,
        TaskID:    tl.TaskID,
        UserID:    tl.UserID,
        Hours:     tl.Hours,
        LoggedOn:  tl.LoggedOn,
        Note:      tl.Note,
        CreatedAt: tl.CreatedAt,
    }
}

type attachmentResponse struct {
    ID         uint64    `json:"id"`
    TaskID     uint64    `json:"task_id"`
    UploaderID uint64    `json:"uploader_id"`
    Filename   string    `json:"filename"`
    URL        string    `json:"url"`
    SizeBytes  int64     `json:"size_bytes"`
    CreatedAt  time.Time `json:"created_at"`
}

func toAttachmentResponse(a model.Attachment) attachmentResponse {
    return attachmentResponse{
        ID:         a.ID,
        TaskID:     a.TaskID,
        UploaderID: a.UploaderID,
        Filename:   a.Filename,
        URL:        a.URL,
        SizeBytes:  a.SizeBytes,
        CreatedAt:  a.CreatedAt,
    }
}

type activityResponse struct {
    ID        uint64          `json:"id"`
    TaskID    uint64          `json:"task_id"`
    UserID    uint64          `json:"user_id"`
    Type      string          `json:"type"`
    Metadata  json.RawMessage `json:"metadata"`
    CreatedAt time.Time       `json:"created_at"`
}

func toActivityResponse(a model.ActivityLog) activityResponse {
    meta := json.RawMessage(a.Metadata)
    if len(meta) == 0 {
        meta = json.RawMessage("{}")
    }
    return activityResponse{
        ID:        a.ID,
        TaskID:    a.TaskID,
        UserID:    a.UserID,
        Type:      string(a.Type),
        Metadata:  meta,
        CreatedAt: a.CreatedAt,
    }
}
