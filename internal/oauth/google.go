package oauth

import (
    "context"
    "fmt"

    "github.com/coreos/go-oidc/v3/oidc"
)

const googleIssuer = "https://accounts.google.com"

// GoogleVerifier validates Google ID tokens against the application's
// OAuth client id using Google's published signing keys.
type GoogleVerifier struct {
    verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier discovers Google's OIDC configuration and prepares an
// ID token verifier whose expected audience is clientID.
func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
    provider, err := oidc.NewProvider(ctx, googleIssuer)
    if err != nil {
        return nil, fmt.Errorf("discover google oidc provider: %w", err)
    }
    return &GoogleVerifier{
        verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
    }, nil
}

// Verify checks the ID token's signature, audience and expiry, then
// extracts the profile claims.  Tokens without an email or name claim are
// rejected; nothing downstream should guess missing identity fields.
func (g *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (Profile, error) {
    idToken, err := g.verifier.Verify(ctx, rawIDToken)
    if err != nil {
        return Profile{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
    }
    var claims struct {
        Email         string `json:"email"`
        EmailVerified bool   `json:"email_verified"`
        Name          string `json:"name"`
        Picture       string `json:"picture"`
    }
    if err := idToken.Claims(&claims); err != nil {
        return Profile{}, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
    }
    if claims.Email == "" || claims.Name == "" {
        return Profile{}, fmt.Errorf("%w: id token missing email or name claim", ErrVerificationFailed)
    }
    return Profile{
        Email:         claims.Email,
        Name:          claims.Name,
        AvatarURL:     claims.Picture,
        EmailVerified: claims.EmailVerified,
    }, nil
}
