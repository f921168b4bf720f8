package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings is used when parsing duration suffixes
    "time"    // time holds parsed token lifetimes
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Token lifetimes are kept separately for the
// credentials and OAuth login paths because the two methods carry different
// expiry policies (e.g. "20m"/"7d" for credentials vs "1h"/"30d" for OAuth).
type Config struct {
    Env  string // application environment (e.g. "dev", "prod")
    Port string // HTTP port to listen on

    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    AccessSecret  string // secret used to sign access tokens
    RefreshSecret string // secret used to sign refresh tokens (distinct from access)

    CredAccessTTL   time.Duration // access token lifetime for credential logins
    CredRefreshTTL  time.Duration // refresh token lifetime for credential logins
    OAuthAccessTTL  time.Duration // access token lifetime for OAuth logins
    OAuthRefreshTTL time.Duration // refresh token lifetime for OAuth logins

    BcryptCost        int           // bcrypt cost for password hashing
    RequireActivation bool          // new accounts start inactive until an admin activates them
    RefreshCookieName string        // name of the HTTP-only cookie carrying the refresh token
    InviteTTL         time.Duration // how long an invite token stays redeemable

    GoogleClientID    string // Google OAuth client id (audience for ID token verification)
    FacebookAppID     string // Facebook app id used for token introspection
    FacebookAppSecret string // Facebook app secret used for token introspection

    UploadDir     string // directory where avatar/attachment files are written
    UploadBaseURL string // public base URL under which uploaded files are served
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values fall
// back to sensible defaults so a development setup needs only the secrets.
func Load() Config {
    return Config{
        Env:  must("APP_ENV"),
        Port: must("APP_PORT"),

        DBUser: must("DB_USER"),
        DBPass: os.Getenv("DB_PASS"), // empty password allowed
        DBHost: must("DB_HOST"),
        DBPort: must("DB_PORT"),
        DBName: must("DB_NAME"),

        AccessSecret:  must("ACCESS_TOKEN_SECRET"),
        RefreshSecret: must("REFRESH_TOKEN_SECRET"),

        CredAccessTTL:   mustTTL("CRED_ACCESS_TTL", "20m"),
        CredRefreshTTL:  mustTTL("CRED_REFRESH_TTL", "7d"),
        OAuthAccessTTL:  mustTTL("OAUTH_ACCESS_TTL", "1h"),
        OAuthRefreshTTL: mustTTL("OAUTH_REFRESH_TTL", "30d"),

        BcryptCost:        mustInt("BCRYPT_COST"),
        RequireActivation: getenv("REQUIRE_ACTIVATION", "false") == "true",
        RefreshCookieName: getenv("REFRESH_COOKIE_NAME", "refresh_token"),
        InviteTTL:         mustTTL("INVITE_TTL", "72h"),

        GoogleClientID:    os.Getenv("GOOGLE_CLIENT_ID"),
        FacebookAppID:     os.Getenv("FACEBOOK_APP_ID"),
        FacebookAppSecret: os.Getenv("FACEBOOK_APP_SECRET"),

        UploadDir:     getenv("UPLOAD_DIR", "uploads"),
        UploadBaseURL: getenv("UPLOAD_BASE_URL", "/uploads"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// mustTTL parses a duration env var, falling back to def when unset.  On top
// of the standard Go duration syntax it accepts a "d" suffix for whole days
// ("7d", "30d") since token lifetimes are usually expressed that way.
func mustTTL(key, def string) time.Duration {
    s := getenv(key, def)
    d, err := ParseTTL(s)
    if err != nil {
        log.Fatalf("invalid duration for %s: %q", key, s)
    }
    return d
}

// ParseTTL converts a lifetime string such as "20m", "1h" or "7d" into a
// time.Duration.  Day values must be a plain integer followed by 'd'.
func ParseTTL(s string) (time.Duration, error) {
    s = strings.TrimSpace(s)
    if strings.HasSuffix(s, "d") {
        n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
        if err != nil {
            return 0, err
        }
        return time.Duration(n) * 24 * time.Hour, nil
    }
    return time.ParseDuration(s)
}

// getenv returns the value of key or def when key is unset or empty.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
