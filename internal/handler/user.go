package handler

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"
    "path/filepath"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/repository"
    "github.com/iliyamo/project-task-tracker/internal/service"
    "github.com/iliyamo/project-task-tracker/internal/storage"
)

// maxAvatarBytes caps avatar uploads at 2 MiB.
const maxAvatarBytes = 2 << 20

// UserHandler serves the account administration endpoints: listing,
// inviting, role changes, activation toggles and avatar uploads.
type UserHandler struct {
    Users    *repository.UserRepo
    Tokens   *repository.TokenRepo
    Identity *service.IdentityService
    Uploads  storage.Uploader
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *repository.UserRepo, tokens *repository.TokenRepo, identity *service.IdentityService, uploads storage.Uploader) *UserHandler {
    return &UserHandler{Users: users, Tokens: tokens, Identity: identity, Uploads: uploads}
}

type inviteRequest struct {
    Email string `json:"email"`
    Name  string `json:"name"`
    Role  string `json:"role"`
}

type updateRoleRequest struct {
    Role string `json:"role"`
}

type setActiveRequest struct {
    IsActive bool `json:"is_active"`
}

type updateProfileRequest struct {
    Name string `json:"name"`
}

// List handles GET /v1/users.  Admins and managers see the whole roster;
// members get it too, because assignee pickers need names, but only the
// public fields are ever serialized.
func (h *UserHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    users, err := h.Users.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list users"})
    }
    out := make([]userResponse, 0, len(users))
    for _, u := range users {
        out = append(out, toUserResponse(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Invite handles POST /v1/users/invite.  Only admins reach this route;
// the created account is inactive until the invite is redeemed.
func (h *UserHandler) Invite(c echo.Context) error {
    _, _, ok := identity(c)
    if !ok {
        return nil
    }
    var req inviteRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Email = strings.TrimSpace(strings.ToLower(req.Email))
    req.Name = strings.TrimSpace(req.Name)
    role, roleOK := authz.ParseRole(req.Role)
    if req.Email == "" || req.Name == "" || !roleOK {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, name and a valid role are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    inviterName, _ := c.Get("name").(string)
    user, token, err := h.Identity.CreateInvite(ctx, req.Email, req.Name, string(role), inviterName)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create invite"})
    }

    // The raw token is returned once so the admin can hand it over out of
    // band if email delivery fails.  Only its hash is stored.
    return c.JSON(http.StatusCreated, echo.Map{
        "user":         toUserResponse(user),
        "invite_token": token,
    })
}

// UpdateRole handles PUT /v1/users/role/:id.  Admin only.
func (h *UserHandler) UpdateRole(c echo.Context) error {
    _, actorRole, ok := identity(c)
    if !ok {
        return nil
    }
    if !authz.CanChangeRole(actorRole) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only administrators may change roles"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    var req updateRoleRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    role, roleOK := authz.ParseRole(req.Role)
    if !roleOK {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.UpdateRole(ctx, id, string(role)); err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update role"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// SetActive handles PUT /v1/users/active/:id for both activation and
// deactivation.  Deactivating also revokes every refresh token the user
// holds so the account loses access at the next token expiry.
func (h *UserHandler) SetActive(c echo.Context) error {
    actorID, actorRole, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    var req setActiveRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.IsActive {
        if !authz.CanSetActive(actorRole) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "only managers or administrators may activate accounts"})
        }
    } else if err := authz.CanDeactivateUser(actorRole, actorID, id); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.SetActive(ctx, id, req.IsActive); err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update account"})
    }
    if !req.IsActive {
        if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not revoke sessions"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "account updated"})
}

// Delete handles DELETE /v1/users/:id.  Accounts are never removed; the
// row is deactivated so authored tasks, comments and activity history keep
// their attribution.
func (h *UserHandler) Delete(c echo.Context) error {
    actorID, actorRole, ok := identity(c)
    if !ok {
        return nil
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if err := authz.CanDeactivateUser(actorRole, actorID, id); err != nil {
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.SetActive(ctx, id, false); err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not deactivate user"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not revoke sessions"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "account deactivated"})
}

// UpdateProfile handles PUT /v1/users/me and lets a user rename
// themselves.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req updateProfileRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.UpdateProfile(ctx, uid, req.Name); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update profile"})
    }
    user, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load profile"})
    }
    return c.JSON(http.StatusOK, toUserResponse(user))
}

// UploadAvatar handles POST /v1/users/me/avatar with a multipart "file"
// field.  The image lands in the storage backend and its public URL is
// saved on the user row.
func (h *UserHandler) UploadAvatar(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    fh, err := c.FormFile("file")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "file field is required"})
    }
    if fh.Size > maxAvatarBytes {
        return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "avatar exceeds 2MB"})
    }
    ext := strings.ToLower(filepath.Ext(fh.Filename))
    switch ext {
    case ".png", ".jpg", ".jpeg", ".gif", ".webp":
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported image type"})
    }

    src, err := fh.Open()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not read upload"})
    }
    defer src.Close()
    data, err := io.ReadAll(io.LimitReader(src, maxAvatarBytes+1))
    if err != nil || int64(len(data)) > maxAvatarBytes {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "could not read upload"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    key := fmt.Sprintf("avatars/%d%s", uid, ext)
    url, err := h.Uploads.Upload(ctx, key, data)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store avatar"})
    }
    if err := h.Users.UpdateAvatar(ctx, uid, url); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save avatar"})
    }
    return c.JSON(http.StatusOK, echo.Map{"avatar_url": url})
}
