package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  The json
// tags are omitted here because these structs are used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// A user row exists regardless of how the account was created: direct
// registration, an admin invite, or a first OAuth login.  OAuth-created
// accounts still carry a password hash (a random unusable placeholder)
// so the same record is reachable through either login path once the
// email matches.
//
// Fields:
//  ID              – primary key identifier of the user.
//  Email           – unique email address (lower-cased on write).
//  PasswordHash    – bcrypt hashed password, or a random placeholder for
//                    accounts created via OAuth.
//  Name            – display name.
//  Role            – role name (ADMIN, MANAGER or MEMBER).
//  IsActive        – whether the account may log in.  Deactivation is the
//                    only removal path; user rows are never hard-deleted.
//  InviteTokenHash – SHA-256 digest of an outstanding invite token, empty
//                    once the invite is redeemed.
//  InviteExpiresAt – when the invite token stops being redeemable.
//  AvatarURL       – optional public URL of the user's avatar.
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type User struct {
    ID              uint64     // users.id
    Email           string     // users.email
    PasswordHash    string     // users.password_hash
    Name            string     // users.name
    Role            string     // users.role
    IsActive        bool       // users.is_active
    InviteTokenHash string     // users.invite_token_hash (empty when none)
    InviteExpiresAt *time.Time // users.invite_expires_at (nullable)
    AvatarURL       string     // users.avatar_url (empty when none)
    CreatedAt       time.Time  // users.created_at
    UpdatedAt       time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and contains metadata for expiry and revocation.
// The signed token itself is not stored; only its SHA-256 hash, so a stolen
// database dump cannot be used to mint sessions.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the signed refresh token.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
