package model

import "time"

// Comment is a discussion entry attached to a task.  Authors may edit or
// delete only their own comments; Admins may delete any.
type Comment struct {
    ID        uint64    // comments.id
    TaskID    uint64    // comments.task_id
    AuthorID  uint64    // comments.author_id
    Body      string    // comments.body
    CreatedAt time.Time // comments.created_at
    UpdatedAt time.Time // comments.updated_at
}

// TimeLog records hours a user spent on a task on a given day.  Members may
// log time only against tasks they are assigned to.
type TimeLog struct {
    ID        uint64    // time_logs.id
    TaskID    uint64    // time_logs.task_id
    UserID    uint64    // time_logs.user_id
    Hours     float64   // time_logs.hours
    LoggedOn  time.Time // time_logs.logged_on (the day the work happened)
    Note      string    // time_logs.note
    CreatedAt time.Time // time_logs.created_at
}

// Attachment is a file uploaded against a task.  The row stores only
// metadata; the bytes live in object storage under StorageKey and are
// served from URL.
type Attachment struct {
    ID         uint64    // attachments.id
    TaskID     uint64    // attachments.task_id
    UploaderID uint64    // attachments.uploader_id
    Filename   string    // attachments.filename
    URL        string    // attachments.url
    StorageKey string    // attachments.storage_key (used for deletion)
    SizeBytes  int64     // attachments.size_bytes
    CreatedAt  time.Time // attachments.created_at
}
