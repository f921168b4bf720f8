// Package queue defines message payloads exchanged over the message broker.
package queue

// InviteCreatedEvent is published when an admin invites a new user.  The
// consumer turns it into the invite email; it carries everything needed to
// render the notification without querying the primary database.  Token is
// the raw invite token; it exists only in this message and in the email
// derived from it, never in the database.
type InviteCreatedEvent struct {
    Email     string `json:"email"`
    Name      string `json:"name"`
    Role      string `json:"role"`
    Token     string `json:"token"`
    InvitedBy string `json:"invited_by"`
    ExpiresAt string `json:"expires_at"`
}
