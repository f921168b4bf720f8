package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/config"
    "github.com/iliyamo/project-task-tracker/internal/model"
    "github.com/iliyamo/project-task-tracker/internal/oauth"
    "github.com/iliyamo/project-task-tracker/internal/repository"
    "github.com/iliyamo/project-task-tracker/internal/service"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

// AuthHandler bundles everything the authentication endpoints need: the
// identity service that resolves who is calling, the token issuer that
// mints JWTs, and the repositories backing session bookkeeping.
type AuthHandler struct {
    Cfg      config.Config
    Identity *service.IdentityService
    Users    *repository.UserRepo
    Tokens   *repository.TokenRepo
    Issuer   *utils.Issuer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg config.Config, identity *service.IdentityService, users *repository.UserRepo, tokens *repository.TokenRepo, issuer *utils.Issuer) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Identity: identity, Users: users, Tokens: tokens, Issuer: issuer}
}

// registerRequest is the JSON body for self-service sign up.
type registerRequest struct {
    Email    string `json:"email"`
    Name     string `json:"name"`
    Password string `json:"password"`
}

// loginRequest is the JSON body for the credentials login endpoint.
type loginRequest struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

// oauthRequest carries a provider name and the assertion obtained from
// that provider (a Google ID token or a Facebook access token).
type oauthRequest struct {
    Provider  string `json:"provider"`
    Assertion string `json:"assertion"`
}

// acceptInviteRequest redeems an invite token and sets the first password.
type acceptInviteRequest struct {
    Token    string `json:"token"`
    Password string `json:"password"`
}

// refreshRequest optionally carries the refresh token in the body for
// clients that cannot use cookies.
type refreshRequest struct {
    RefreshToken string `json:"refresh_token"`
}

// userResponse is the public view of a user returned by auth endpoints.
type userResponse struct {
    ID        uint64 `json:"id"`
    Email     string `json:"email"`
    Name      string `json:"name"`
    Role      string `json:"role"`
    IsActive  bool   `json:"is_active"`
    AvatarURL string `json:"avatar_url,omitempty"`
}

func toUserResponse(u model.User) userResponse {
    return userResponse{
        ID:        u.ID,
        Email:     u.Email,
        Name:      u.Name,
        Role:      u.Role,
        IsActive:  u.IsActive,
        AvatarURL: u.AvatarURL,
    }
}

// sessionResponse is returned whenever a new session is established.
type sessionResponse struct {
    User         userResponse `json:"user"`
    AccessToken  string       `json:"access_token"`
    RefreshToken string       `json:"refresh_token"`
    ExpiresAt    int64        `json:"expires_at"`
}

// Register handles POST /v1/auth/register.  Self-registered accounts are
// always plain members; elevated roles only ever arrive through invites.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    req.Email = strings.TrimSpace(strings.ToLower(req.Email))
    req.Name = strings.TrimSpace(req.Name)
    if req.Email == "" || req.Name == "" || len(req.Password) < 8 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, name and a password of at least 8 characters are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    user, err := h.Identity.Register(ctx, req.Email, req.Name, req.Password)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not register user"})
    }

    // When activation is required the account stays dormant until an
    // administrator flips it on, so no tokens are handed out yet.
    if !user.IsActive {
        return c.JSON(http.StatusCreated, echo.Map{
            "user":    toUserResponse(user),
            "message": "account created, awaiting activation",
        })
    }
    return h.establishSession(c, ctx, user, utils.MethodCredentials, http.StatusCreated)
}

// Login handles POST /v1/auth/login with email and password.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    user, err := h.Identity.ResolveByCredentials(ctx, strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrInvalidCredentials):
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
        case errors.Is(err, service.ErrAccountInactive):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "account is not active"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
        }
    }
    return h.establishSession(c, ctx, user, utils.MethodCredentials, http.StatusOK)
}

// OAuth handles POST /v1/auth/oauth.  The provider verifies the assertion
// server side; a verified profile either matches an existing account by
// email or creates a fresh member account.
func (h *AuthHandler) OAuth(c echo.Context) error {
    var req oauthRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Provider == "" || req.Assertion == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider and assertion are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    user, err := h.Identity.ResolveOrCreateOAuth(ctx, req.Provider, req.Assertion)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrUnknownProvider):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown oauth provider"})
        case errors.Is(err, oauth.ErrVerificationFailed):
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "oauth verification failed"})
        case errors.Is(err, service.ErrAccountInactive):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "account is not active"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "oauth login failed"})
        }
    }
    return h.establishSession(c, ctx, user, utils.MethodOAuth, http.StatusOK)
}

// AcceptInvite handles POST /v1/auth/invite/accept.  Redeeming the token
// sets the password, activates the account and logs the user in.
func (h *AuthHandler) AcceptInvite(c echo.Context) error {
    var req acceptInviteRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Token == "" || len(req.Password) < 8 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and a password of at least 8 characters are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    user, err := h.Identity.ResolveInvite(ctx, req.Token, req.Password)
    if err != nil {
        if errors.Is(err, service.ErrInvalidOrExpiredInvite) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired invite"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not accept invite"})
    }
    return h.establishSession(c, ctx, user, utils.MethodCredentials, http.StatusOK)
}

// Refresh handles POST /v1/auth/refresh.  The refresh token is read from
// the HTTP-only cookie or, failing that, the request body.  It must both
// verify as a JWT and still be registered (not revoked) server side.
func (h *AuthHandler) Refresh(c echo.Context) error {
    raw := h.refreshTokenFrom(c)
    if raw == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
    }

    claims, err := h.Issuer.VerifyRefresh(raw)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // The fingerprint lookup is what makes logout and revoke-all stick; a
    // structurally valid JWT that was revoked must not mint new access.
    if _, err := h.Tokens.ValidateRefresh(ctx, utils.FingerprintToken(raw)); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token revoked or expired"})
    }

    user, err := h.Users.GetByID(ctx, claims.UserID)
    if err != nil || !user.IsActive {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account unavailable"})
    }

    access, err := h.Issuer.IssueAccess(utils.Claims{
        UserID: user.ID,
        Email:  user.Email,
        Name:   user.Name,
        Role:   user.Role,
        Method: claims.Method,
    }, claims.Method)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
    }

    return c.JSON(http.StatusOK, echo.Map{
        "access_token": access.Token,
        "expires_at":   access.Exp.Unix(),
        "user":         toUserResponse(user),
    })
}

// Logout handles POST /v1/auth/logout.  With a refresh token present only
// that session is revoked; an authenticated call without one revokes every
// session the user has.
func (h *AuthHandler) Logout(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if raw := h.refreshTokenFrom(c); raw != "" {
        if err := h.Tokens.RevokeByHash(ctx, utils.FingerprintToken(raw)); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        h.clearRefreshCookie(c)
        return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
    }

    // No refresh token: fall back to the access token and revoke all.
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
    }
    claims, err := h.Issuer.VerifyAccess(strings.TrimPrefix(auth, "Bearer "))
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, claims.UserID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    h.clearRefreshCookie(c)
    return c.JSON(http.StatusOK, echo.Map{"message": "logged out everywhere"})
}

// Me handles GET /v1/auth/me and returns the authenticated user's profile
// straight from the database so role or activation changes show up
// immediately, not only after the next token refresh.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    user, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load profile"})
    }
    return c.JSON(http.StatusOK, toUserResponse(user))
}

// establishSession mints an access/refresh pair, registers the refresh
// fingerprint for later revocation and replies with the session payload.
func (h *AuthHandler) establishSession(c echo.Context, ctx context.Context, user model.User, method utils.Method, status int) error {
    pair, err := h.Issuer.Issue(utils.Claims{
        UserID: user.ID,
        Email:  user.Email,
        Name:   user.Name,
        Role:   user.Role,
        Method: method,
    }, method)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue tokens"})
    }

    if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.FingerprintToken(pair.Refresh.Token), pair.Refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not persist session"})
    }

    h.setRefreshCookie(c, pair.Refresh.Token, pair.Refresh.Exp)

    return c.JSON(status, sessionResponse{
        User:         toUserResponse(user),
        AccessToken:  pair.Access.Token,
        RefreshToken: pair.Refresh.Token,
        ExpiresAt:    pair.Access.Exp.Unix(),
    })
}

// refreshTokenFrom looks for the refresh token in the cookie first and the
// JSON body second.
func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
    if cookie, err := c.Cookie(h.Cfg.RefreshCookieName); err == nil && cookie.Value != "" {
        return cookie.Value
    }
    var req refreshRequest
    if err := c.Bind(&req); err == nil && req.RefreshToken != "" {
        return req.RefreshToken
    }
    return ""
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string, expires time.Time) {
    c.SetCookie(&http.Cookie{
        Name:     h.Cfg.RefreshCookieName,
        Value:    token,
        Path:     "/v1/auth",
        Expires:  expires,
        HttpOnly: true,
        Secure:   h.Cfg.Env == "production",
        SameSite: http.SameSiteStrictMode,
    })
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     h.Cfg.RefreshCookieName,
        Value:    "",
        Path:     "/v1/auth",
        MaxAge:   -1,
        HttpOnly: true,
    })
}
