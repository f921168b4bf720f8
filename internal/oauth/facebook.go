package oauth

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "time"
)

// FacebookVerifier introspects a user access token via the Graph API
// debug_token endpoint and, once the token checks out, fetches the profile
// fields.  BaseURL is injectable so tests can point it at a local server.
type FacebookVerifier struct {
    AppID     string
    AppSecret string
    BaseURL   string // defaults to https://graph.facebook.com
    Client    *http.Client
}

// NewFacebookVerifier returns a verifier for the given Facebook app
// credentials with a bounded HTTP client.
func NewFacebookVerifier(appID, appSecret string) *FacebookVerifier {
    return &FacebookVerifier{
        AppID:     appID,
        AppSecret: appSecret,
        BaseURL:   "https://graph.facebook.com",
        Client:    &http.Client{Timeout: 10 * time.Second},
    }
}

// Verify performs the two Graph API calls: debug_token to confirm the
// token is valid and was issued for this app, then /me for the profile.
func (f *FacebookVerifier) Verify(ctx context.Context, accessToken string) (Profile, error) {
    if err := f.introspect(ctx, accessToken); err != nil {
        return Profile{}, err
    }
    return f.profile(ctx, accessToken)
}

// introspect calls debug_token using the app token (app_id|app_secret) and
// rejects tokens that are invalid or belong to a different app.
func (f *FacebookVerifier) introspect(ctx context.Context, accessToken string) error {
    q := url.Values{}
    q.Set("input_token", accessToken)
    q.Set("access_token", f.AppID+"|"+f.AppSecret)

    var out struct {
        Data struct {
            AppID   string `json:"app_id"`
            IsValid bool   `json:"is_valid"`
        } `json:"data"`
    }
    if err := f.get(ctx, "/debug_token?"+q.Encode(), &out); err != nil {
        return err
    }
    if !out.Data.IsValid || out.Data.AppID != f.AppID {
        return fmt.Errorf("%w: facebook token is invalid or issued for another app", ErrVerificationFailed)
    }
    return nil
}

// profile fetches id, name, email and picture for the token's user.
func (f *FacebookVerifier) profile(ctx context.Context, accessToken string) (Profile, error) {
    q := url.Values{}
    q.Set("fields", "id,name,email,picture.type(large)")
    q.Set("access_token", accessToken)

    var out struct {
        Name    string `json:"name"`
        Email   string `json:"email"`
        Picture struct {
            Data struct {
                URL string `json:"url"`
            } `json:"data"`
        } `json:"picture"`
    }
    if err := f.get(ctx, "/me?"+q.Encode(), &out); err != nil {
        return Profile{}, err
    }
    if out.Email == "" || out.Name == "" {
        return Profile{}, fmt.Errorf("%w: facebook profile missing email or name", ErrVerificationFailed)
    }
    return Profile{
        Email:         out.Email,
        Name:          out.Name,
        AvatarURL:     out.Picture.Data.URL,
        EmailVerified: true, // facebook only returns confirmed emails
    }, nil
}

// get performs a Graph API GET and decodes the JSON body into dst.  Any
// transport or non-200 failure is reported as a verification failure.
func (f *FacebookVerifier) get(ctx context.Context, path string, dst interface{}) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
    }
    resp, err := f.Client.Do(req)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
    }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        return fmt.Errorf("%w: graph api returned status %d", ErrVerificationFailed, resp.StatusCode)
    }
    if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
        return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
    }
    return nil
}
