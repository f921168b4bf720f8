// Package oauth verifies external-provider assertions (Google ID tokens,
// Facebook access tokens) and reduces them to the profile fields the
// identity resolver needs.  Providers are never retried automatically; a
// network error or invalid token surfaces immediately as a verification
// failure.
package oauth

import "context"

// Profile is the set of claims extracted from a verified assertion.  Email
// and Name are required; resolution fails without them so no half-formed
// user row is ever created.
type Profile struct {
    Email         string
    Name          string
    AvatarURL     string
    EmailVerified bool
}

// Verifier checks a provider assertion and returns the asserted profile.
type Verifier interface {
    Verify(ctx context.Context, assertion string) (Profile, error)
}
