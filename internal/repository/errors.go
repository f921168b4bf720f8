// Package repository contains data access logic separated from HTTP
// handlers.  This file defines sentinel error values reused across the
// repositories.  Higher layers distinguish failure scenarios with
// errors.Is and translate them into HTTP responses; database errors that
// match none of these surface as generic 500s.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique
// email index.  Handlers translate this into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrProjectNotFound is returned when a project lookup matches no row.
var ErrProjectNotFound = errors.New("project not found")

// ErrSprintNotFound is returned when a sprint lookup matches no row.
var ErrSprintNotFound = errors.New("sprint not found")

// ErrTaskNotFound is returned when a task lookup matches no row.
var ErrTaskNotFound = errors.New("task not found")

// ErrCommentNotFound is returned when a comment lookup matches no row.
var ErrCommentNotFound = errors.New("comment not found")

// ErrTimeLogNotFound is returned when a time log lookup matches no row.
var ErrTimeLogNotFound = errors.New("time log not found")

// ErrAttachmentNotFound is returned when an attachment lookup matches no row.
var ErrAttachmentNotFound = errors.New("attachment not found")
