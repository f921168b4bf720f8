package authz

import "fmt"

// Status is a task lifecycle state.
type Status string

const (
    StatusTodo       Status = "TODO"
    StatusInProgress Status = "IN_PROGRESS"
    StatusReview     Status = "REVIEW"
    StatusDone       Status = "DONE"
)

// ParseStatus normalizes a status string.  Unknown values report ok=false.
func ParseStatus(s string) (Status, bool) {
    switch Status(s) {
    case StatusTodo, StatusInProgress, StatusReview, StatusDone:
        return Status(s), true
    }
    return "", false
}

// CanTransition enforces the task status state machine:
//
//   - any authorized updater may move freely among TODO, IN_PROGRESS and
//     REVIEW, and may reopen a DONE task back into those states;
//   - DONE is reachable only from REVIEW, and only by an Admin or Manager;
//   - an Admin or Manager may force DONE from any other state, in which
//     case forced=true so the caller records the transition as forced;
//   - a Member attempting any transition into DONE is denied outright.
//
// The returned error wraps ErrForbidden or ErrInvalidTransition with the
// precondition the caller violated.
func CanTransition(role Role, from, to Status) (forced bool, err error) {
    if from == to {
        return false, nil // no-op; nothing to enforce or log
    }
    if to != StatusDone {
        return false, nil
    }
    if role != RoleAdmin && role != RoleManager {
        return false, fmt.Errorf("%w: only managers or administrators may mark a task as done", ErrForbidden)
    }
    if from != StatusReview {
        // Managers and Admins may skip REVIEW, but the jump is recorded.
        return true, fmt.Errorf("%w: task must be in REVIEW status before it can be marked as DONE", ErrInvalidTransition)
    }
    return false, nil
}

// ForceTransition is CanTransition for callers that explicitly requested a
// forced completion.  It permits Admin/Manager moves into DONE from any
// state and reports whether the REVIEW precondition was skipped.
func ForceTransition(role Role, from, to Status) (forced bool, err error) {
    forced, err = CanTransition(role, from, to)
    if err != nil && forced {
        // The only recoverable denial: Admin/Manager forcing DONE early.
        return true, nil
    }
    return forced, err
}
