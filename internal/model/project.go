package model

import "time"

// Project groups sprints and their tasks under a single initiative.  A
// project is created by an Admin or Manager; Members only ever see
// projects they created or are assigned into through a task.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – human-friendly project name.
//  Description – optional free-form description.
//  CreatorID   – users.id of whoever created the project.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Project struct {
    ID          uint64    // projects.id
    Name        string    // projects.name
    Description string    // projects.description
    CreatorID   uint64    // projects.creator_id
    CreatedAt   time.Time // projects.created_at
    UpdatedAt   time.Time // projects.updated_at
}

// Sprint is a time-boxed iteration inside a project.  Tasks always belong
// to exactly one sprint, which is how a task links back to its project.
//
// Fields:
//  ID        – primary key identifier.
//  ProjectID – owning project.
//  Name      – sprint name (e.g. "Sprint 14").
//  StartsAt  – first day of the sprint.
//  EndsAt    – last day of the sprint.
//  CreatorID – users.id of whoever created the sprint.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Sprint struct {
    ID        uint64    // sprints.id
    ProjectID uint64    // sprints.project_id
    Name      string    // sprints.name
    StartsAt  time.Time // sprints.starts_at
    EndsAt    time.Time // sprints.ends_at
    CreatorID uint64    // sprints.creator_id
    CreatedAt time.Time // sprints.created_at
    UpdatedAt time.Time // sprints.updated_at
}
