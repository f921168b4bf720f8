// Package service implements the identity resolver: the single place where
// an authentication attempt (credentials, OAuth assertion, or invite
// redemption) is mapped to exactly one canonical user record.
package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/project-task-tracker/internal/authz"
    "github.com/iliyamo/project-task-tracker/internal/config"
    "github.com/iliyamo/project-task-tracker/internal/model"
    "github.com/iliyamo/project-task-tracker/internal/oauth"
    "github.com/iliyamo/project-task-tracker/internal/queue"
    "github.com/iliyamo/project-task-tracker/internal/repository"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

var (
    // ErrInvalidCredentials is returned for a wrong password or an
    // unknown email.  The two cases are deliberately indistinguishable so
    // login responses never leak whether an email is registered.
    ErrInvalidCredentials = errors.New("invalid credentials")
    // ErrAccountInactive is returned when the account exists but may not
    // log in, either because it was deactivated or because it is still
    // pending admin activation.
    ErrAccountInactive = errors.New("account is not active")
    // ErrInvalidOrExpiredInvite is returned when an invite token matches
    // no user or its expiry has passed.
    ErrInvalidOrExpiredInvite = errors.New("invalid or expired invite")
    // ErrUnknownProvider is returned for an OAuth provider name the
    // service has no verifier for.
    ErrUnknownProvider = errors.New("unknown oauth provider")
)

// IdentityService resolves authentication attempts into user records.  It
// creates or updates rows as needed but never deletes them.
type IdentityService struct {
    Users     *repository.UserRepo
    Verifiers map[string]oauth.Verifier // keyed by provider name ("google", "facebook")
    Cfg       config.Config
}

func NewIdentityService(users *repository.UserRepo, verifiers map[string]oauth.Verifier, cfg config.Config) *IdentityService {
    return &IdentityService{Users: users, Verifiers: verifiers, Cfg: cfg}
}

// ResolveByCredentials looks the user up by email and checks the password.
// Absent users and password mismatches both collapse into
// ErrInvalidCredentials; inactive accounts fail with ErrAccountInactive
// only after the password checked out, so the error itself cannot be used
// to probe for valid credentials.
func (s *IdentityService) ResolveByCredentials(ctx context.Context, email, password string) (model.User, error) {
    u, err := s.Users.GetByEmail(ctx, email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return model.User{}, ErrInvalidCredentials
        }
        return model.User{}, err
    }
    if !utils.VerifyPassword(u.PasswordHash, password) {
        return model.User{}, ErrInvalidCredentials
    }
    if !u.IsActive {
        return model.User{}, ErrAccountInactive
    }
    return u, nil
}

// ResolveOrCreateOAuth verifies the assertion against the named provider
// and maps the asserted profile to a user row.  First login creates a
// Member with a random unusable password placeholder; later logins reuse
// the row matched by email, so the same account is reachable through either
// authentication method.  The avatar is refreshed when the provider
// reports a new one.  Calling this twice with the same verified identity
// and an unchanged avatar is a pure read.
func (s *IdentityService) ResolveOrCreateOAuth(ctx context.Context, provider, assertion string) (model.User, error) {
    v, ok := s.Verifiers[strings.ToLower(provider)]
    if !ok {
        return model.User{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
    }
    p, err := v.Verify(ctx, assertion)
    if err != nil {
        return model.User{}, err
    }

    u, err := s.Users.GetByEmail(ctx, p.Email)
    if errors.Is(err, repository.ErrUserNotFound) {
        return s.createFromProfile(ctx, p)
    }
    if err != nil {
        return model.User{}, err
    }
    if !u.IsActive {
        return model.User{}, ErrAccountInactive
    }
    if p.AvatarURL != "" && p.AvatarURL != u.AvatarURL {
        if err := s.Users.UpdateAvatar(ctx, u.ID, p.AvatarURL); err != nil {
            return model.User{}, err
        }
        u.AvatarURL = p.AvatarURL
    }
    return u, nil
}

func (s *IdentityService) createFromProfile(ctx context.Context, p oauth.Profile) (model.User, error) {
    placeholder, err := utils.RandomPasswordPlaceholder(s.Cfg.BcryptCost)
    if err != nil {
        return model.User{}, err
    }
    active := !s.Cfg.RequireActivation
    id, err := s.Users.Create(ctx, p.Email, p.Name, placeholder, string(authz.RoleMember), active)
    if err != nil {
        return model.User{}, err
    }
    if p.AvatarURL != "" {
        if err := s.Users.UpdateAvatar(ctx, id, p.AvatarURL); err != nil {
            return model.User{}, err
        }
    }
    u, err := s.Users.GetByID(ctx, id)
    if err != nil {
        return model.User{}, err
    }
    if !u.IsActive {
        // The row now exists but may not start a session yet.
        return model.User{}, ErrAccountInactive
    }
    return u, nil
}

// Register creates a user from a self-service registration.  Whether the
// account starts active depends on the activation policy toggle.
func (s *IdentityService) Register(ctx context.Context, email, name, password string) (model.User, error) {
    hash, err := utils.HashPassword(password, s.Cfg.BcryptCost)
    if err != nil {
        return model.User{}, err
    }
    active := !s.Cfg.RequireActivation
    id, err := s.Users.Create(ctx, email, name, hash, string(authz.RoleMember), active)
    if err != nil {
        return model.User{}, err
    }
    return s.Users.GetByID(ctx, id)
}

// ResolveInvite redeems an invite token: the matching unexpired invitee
// gets the supplied password, the invite fields are cleared and the
// account activated.  Unknown tokens and expired invites both fail with
// ErrInvalidOrExpiredInvite.
func (s *IdentityService) ResolveInvite(ctx context.Context, token, newPassword string) (model.User, error) {
    u, err := s.Users.GetByInviteToken(ctx, utils.FingerprintToken(token))
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return model.User{}, ErrInvalidOrExpiredInvite
        }
        return model.User{}, err
    }
    hash, err := utils.HashPassword(newPassword, s.Cfg.BcryptCost)
    if err != nil {
        return model.User{}, err
    }
    if err := s.Users.RedeemInvite(ctx, u.ID, hash); err != nil {
        return model.User{}, err
    }
    return s.Users.GetByID(ctx, u.ID)
}

// CreateInvite creates an inactive user with an outstanding invite token
// and hands the notification off to the message queue.  Publish failures
// are logged and swallowed: the invite stands even when the email cannot
// be delivered, and an admin can always re-issue it.  Re-inviting an email
// whose invite is still pending replaces that invite's token and expiry;
// re-inviting an activated account stays a conflict.
func (s *IdentityService) CreateInvite(ctx context.Context, email, name, role, inviterName string) (model.User, string, error) {
    token, err := utils.NewInviteToken()
    if err != nil {
        return model.User{}, "", err
    }
    placeholder, err := utils.RandomPasswordPlaceholder(s.Cfg.BcryptCost)
    if err != nil {
        return model.User{}, "", err
    }
    exp := time.Now().UTC().Add(s.Cfg.InviteTTL)
    id, err := s.Users.CreateInvited(ctx, email, name, placeholder, role, utils.FingerprintToken(token), exp)
    if errors.Is(err, repository.ErrEmailExists) {
        existing, lookupErr := s.Users.GetByEmail(ctx, email)
        if lookupErr != nil {
            return model.User{}, "", err
        }
        if existing.IsActive || existing.InviteTokenHash == "" {
            return model.User{}, "", err
        }
        if err := s.Users.RefreshInvite(ctx, existing.ID, utils.FingerprintToken(token), exp); err != nil {
            return model.User{}, "", err
        }
        id = existing.ID
    } else if err != nil {
        return model.User{}, "", err
    }
    u, err := s.Users.GetByID(ctx, id)
    if err != nil {
        return model.User{}, "", err
    }
    if err := PublishInviteCreated(ctx, queue.InviteCreatedEvent{
        Email:     u.Email,
        Name:      u.Name,
        Role:      u.Role,
        Token:     token,
        InvitedBy: inviterName,
        ExpiresAt: exp.Format(time.RFC3339),
    }); err != nil {
        log.Printf("invite: email event publish failed for %s: %v", u.Email, err)
    }
    return u, token, nil
}
