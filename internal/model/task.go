package model

import "time"

// Task is the unit of work tracked by the system.  Status values move
// through the TODO → IN_PROGRESS → REVIEW → DONE lifecycle enforced by the
// authz package; the repository layer treats the column as an opaque string.
//
// Fields:
//  ID            – primary key identifier.
//  SprintID      – owning sprint (links the task to a project).
//  ParentTaskID  – optional parent task, enabling subtasks.
//  Title         – short summary of the work.
//  Description   – optional long-form description.
//  Status        – TODO, IN_PROGRESS, REVIEW or DONE.
//  Priority      – LOW, MEDIUM, HIGH or CRITICAL.
//  EstimateHours – rough effort estimate in hours.
//  DueDate       – optional due date.
//  CreatorID     – users.id of whoever created the task.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Task struct {
    ID            uint64     // tasks.id
    SprintID      uint64     // tasks.sprint_id
    ParentTaskID  *uint64    // tasks.parent_task_id (nullable)
    Title         string     // tasks.title
    Description   string     // tasks.description
    Status        string     // tasks.status
    Priority      string     // tasks.priority
    EstimateHours float64    // tasks.estimate_hours
    DueDate       *time.Time // tasks.due_date (nullable)
    CreatorID     uint64     // tasks.creator_id
    CreatedAt     time.Time  // tasks.created_at
    UpdatedAt     time.Time  // tasks.updated_at
}

// TaskAssignment links a user to a task they are responsible for.  The
// assignment timestamp records when the user was put on the task.
type TaskAssignment struct {
    TaskID     uint64    // task_assignments.task_id
    UserID     uint64    // task_assignments.user_id
    AssignedAt time.Time // task_assignments.assigned_at
}
