// Package authz is the single authorization evaluator for the application.
// Every role, ownership and status-transition rule lives here as a pure
// function of the actor's role and the target's ownership/assignment data,
// with no HTTP or storage dependency, so the rule set can be tested on its
// own and handlers never re-implement checks inline.
package authz

import (
    "errors"
    "fmt"
)

// Role is the access level carried in a user's JWT and users.role column.
type Role string

const (
    RoleAdmin   Role = "ADMIN"   // unrestricted
    RoleManager Role = "MANAGER" // runs projects, sprints and tasks
    RoleMember  Role = "MEMBER"  // works on tasks they created or are assigned to
)

// ParseRole normalizes a role string.  Unknown values report ok=false.
func ParseRole(s string) (Role, bool) {
    switch Role(s) {
    case RoleAdmin, RoleManager, RoleMember:
        return Role(s), true
    }
    return "", false
}

// Sentinel errors returned by the evaluator.  Each denial wraps one of
// these with a human-readable reason so handlers can both classify the
// failure with errors.Is and surface the reason string to the client.
var (
    // ErrForbidden covers role/ownership denials.
    ErrForbidden = errors.New("forbidden")
    // ErrForbiddenAssignment is returned when a Manager tries to put an
    // Admin on a task.
    ErrForbiddenAssignment = errors.New("forbidden assignment")
    // ErrInvalidTransition is returned when a status change violates the
    // task lifecycle.
    ErrInvalidTransition = errors.New("invalid status transition")
)

// CanManageProjects reports whether role may create, update or delete
// projects and sprints.
func CanManageProjects(role Role) bool {
    return role == RoleAdmin || role == RoleManager
}

// CanManageTasks reports whether role may create or delete tasks.
func CanManageTasks(role Role) bool {
    return role == RoleAdmin || role == RoleManager
}

// CanChangeRole reports whether actor may change another user's role.
// Managers may activate and deactivate accounts but never touch roles.
func CanChangeRole(actor Role) bool {
    return actor == RoleAdmin
}

// CanSetActive reports whether actor may activate or deactivate accounts.
func CanSetActive(actor Role) bool {
    return actor == RoleAdmin || actor == RoleManager
}

// CanDeactivateUser decides whether actor may deactivate the target
// account.  Nobody may remove their own account, whatever their role.
func CanDeactivateUser(actor Role, actorID, targetID uint64) error {
    if actorID == targetID {
        return fmt.Errorf("%w: you cannot deactivate your own account", ErrForbidden)
    }
    if !CanSetActive(actor) {
        return fmt.Errorf("%w: only managers or administrators may deactivate accounts", ErrForbidden)
    }
    return nil
}

// CanReadTask reports whether the actor may see a task.  Admins and
// Managers see everything; a Member sees tasks they created or are
// assigned to.
func CanReadTask(role Role, actorID, creatorID uint64, assigneeIDs []uint64) bool {
    if role == RoleAdmin || role == RoleManager {
        return true
    }
    return isCreatorOrAssignee(actorID, creatorID, assigneeIDs)
}

// CanUpdateTask reports whether the actor may modify a task's fields or
// move it through the lifecycle.  The ownership rule is the same as for
// reads: Members touch only tasks they created or are assigned to.
func CanUpdateTask(role Role, actorID, creatorID uint64, assigneeIDs []uint64) error {
    if role == RoleAdmin || role == RoleManager {
        return nil
    }
    if !isCreatorOrAssignee(actorID, creatorID, assigneeIDs) {
        return fmt.Errorf("%w: you may only update tasks you created or are assigned to", ErrForbidden)
    }
    return nil
}

// CanLogTime reports whether the actor may log hours against a task.
// Members must be assignees; being the creator is not enough.
func CanLogTime(role Role, actorID uint64, assigneeIDs []uint64) error {
    if role == RoleAdmin || role == RoleManager {
        return nil
    }
    for _, id := range assigneeIDs {
        if id == actorID {
            return nil
        }
    }
    return fmt.Errorf("%w: you may only log time against tasks you are assigned to", ErrForbidden)
}

// CanModifyOwn reports whether the actor may update or delete a record
// (comment, time log, attachment) owned by ownerID.  Admins may modify
// anything; everyone else only their own records.
func CanModifyOwn(role Role, actorID, ownerID uint64) error {
    if role == RoleAdmin || actorID == ownerID {
        return nil
    }
    return fmt.Errorf("%w: you may only modify your own entries", ErrForbidden)
}

// CanAssign validates a full replacement of a task's assignee list.  The
// check is all-or-nothing: if the actor is a Manager and any proposed
// assignee is an Admin, the entire batch is rejected and nothing is
// persisted.  Members may not change assignees at all.
func CanAssign(actor Role, assigneeRoles []Role) error {
    switch actor {
    case RoleAdmin:
        return nil
    case RoleManager:
        for _, r := range assigneeRoles {
            if r == RoleAdmin {
                return fmt.Errorf("%w: managers cannot assign tasks to administrators", ErrForbiddenAssignment)
            }
        }
        return nil
    default:
        return fmt.Errorf("%w: only managers or administrators may change assignees", ErrForbidden)
    }
}

func isCreatorOrAssignee(actorID, creatorID uint64, assigneeIDs []uint64) bool {
    if actorID == creatorID {
        return true
    }
    for _, id := range assigneeIDs {
        if id == actorID {
            return true
        }
    }
    return false
}
