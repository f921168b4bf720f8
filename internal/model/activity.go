package model

import "time"

// ActivityType tags an ActivityLog row with the kind of event it records.
type ActivityType string

const (
    ActivityStatusChanged   ActivityType = "status_changed"
    ActivityAssigned        ActivityType = "assigned"
    ActivityCommented       ActivityType = "commented"
    ActivityTimeLogged      ActivityType = "time_logged"
    ActivityAttachmentAdded ActivityType = "attachment_added"
)

// ActivityLog is an append-only audit entry written as a side effect of
// accepted mutations on a task.  Metadata is one of the *Meta structs
// below, serialized to JSON in the metadata column; keeping the shapes as
// named types instead of an open-ended map gives compile-time coverage of
// every activity kind.
type ActivityLog struct {
    ID        uint64       // activity_logs.id
    TaskID    uint64       // activity_logs.task_id
    UserID    uint64       // activity_logs.user_id (the actor)
    Type      ActivityType // activity_logs.type
    Metadata  string       // activity_logs.metadata (JSON)
    CreatedAt time.Time    // activity_logs.created_at
}

// StatusChangedMeta records a status transition.  Forced marks a transition
// into DONE that skipped the REVIEW precondition (Admin/Manager only).
type StatusChangedMeta struct {
    Old    string `json:"old"`
    New    string `json:"new"`
    Forced bool   `json:"forced,omitempty"`
}

// AssignedMeta records an assignee-list rewrite as the delta it applied.
type AssignedMeta struct {
    AddedIDs   []uint64 `json:"added_ids,omitempty"`
    RemovedIDs []uint64 `json:"removed_ids,omitempty"`
}

// CommentedMeta records a new comment on the task.
type CommentedMeta struct {
    CommentID uint64 `json:"comment_id"`
}

// TimeLoggedMeta records hours logged against the task.
type TimeLoggedMeta struct {
    Hours float64 `json:"hours"`
}

// AttachmentAddedMeta records a file uploaded to the task.
type AttachmentAddedMeta struct {
    Filename string `json:"filename"`
}
