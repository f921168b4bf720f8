package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/repository"
)

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole extracts the verified role from the context.  An unknown role
// value means the token predates a role rename and is treated as missing.
func getRole(c echo.Context) (authz.Role, error) {
    s, _ := c.Get("role").(string)
    role, ok := authz.ParseRole(s)
    if !ok {
        return "", errors.New("invalid role in context")
    }
    return role, nil
}

// identity pulls both the actor id and role, replying 401 on failure.
func identity(c echo.Context) (uint64, authz.Role, bool) {
    uid, err := getUserID(c)
    if err != nil {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        return 0, "", false
    }
    role, err := getRole(c)
    if err != nil {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        return 0, "", false
    }
    return uid, role, true
}

// pathID parses a numeric :id (or other named) path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// denialStatus maps an authz denial to its HTTP status.  Status-machine
// violations are 422 (the request is well-formed but the precondition
// fails); everything else under authz is a plain 403.
func denialStatus(err error) int {
    if errors.Is(err, authz.ErrInvalidTransition) {
        return http.StatusUnprocessableEntity
    }
    return http.StatusForbidden
}

// notFound reports whether err is any of the repository not-found
// sentinels, so handlers can collapse them into a 404.
func notFound(err error) bool {
    for _, target := range []error{
        repository.ErrUserNotFound,
        repository.ErrProjectNotFound,
        repository.ErrSprintNotFound,
        repository.ErrTaskNotFound,
        repository.ErrCommentNotFound,
        repository.ErrTimeLogNotFound,
        repository.ErrAttachmentNotFound,
    } {
        if errors.Is(err, target) {
            return true
        }
    }
    return false
}
