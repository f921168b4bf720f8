package utils // package utils provides helper functions for token creation and hashing

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Method tags how an identity was resolved.  The tag is embedded in every
// token (including refresh tokens) so that a refreshed access token is
// issued under the same expiry policy as the login that started the
// session.
type Method string

const (
    MethodCredentials Method = "credentials" // email/password login
    MethodOAuth       Method = "oauth"       // Google or Facebook assertion
)

// ErrInvalidToken is returned by the verify functions on signature
// failure, expiry, or a malformed payload.  A token that fails any part of
// verification is never partially trusted.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload carried by both access and refresh tokens.
type Claims struct {
    UserID uint64 // subject
    Email  string
    Name   string
    Role   string
    Method Method // login method that produced this session
}

// SignedToken pairs a serialized JWT with its expiry time.
type SignedToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// TokenPair is what a successful login returns: a short-lived access token
// for the Authorization header and a longer-lived refresh token delivered
// in an HTTP-only cookie.
type TokenPair struct {
    Access  SignedToken
    Refresh SignedToken
}

// ExpiryPolicy holds the access/refresh lifetimes for one login method.
type ExpiryPolicy struct {
    Access  time.Duration
    Refresh time.Duration
}

// Issuer mints and verifies the application's tokens.  Access and refresh
// tokens are signed with distinct secrets so a leaked access secret cannot
// be used to forge refresh tokens.
type Issuer struct {
    accessSecret  []byte
    refreshSecret []byte
    credentials   ExpiryPolicy
    oauth         ExpiryPolicy
}

// NewIssuer constructs an Issuer from the two signing secrets and the
// per-method expiry policies.
func NewIssuer(accessSecret, refreshSecret string, credentials, oauth ExpiryPolicy) *Issuer {
    return &Issuer{
        accessSecret:  []byte(accessSecret),
        refreshSecret: []byte(refreshSecret),
        credentials:   credentials,
        oauth:         oauth,
    }
}

// policy returns the expiry policy for a method, defaulting to the
// credentials policy for unknown tags.
func (i *Issuer) policy(m Method) ExpiryPolicy {
    if m == MethodOAuth {
        return i.oauth
    }
    return i.credentials
}

// Issue returns an access/refresh token pair for a resolved identity.  The
// method determines which expiry policy applies; both tokens embed the
// method so Refresh can honour it later.
func (i *Issuer) Issue(cl Claims, m Method) (TokenPair, error) {
    p := i.policy(m)
    cl.Method = m
    access, err := sign(i.accessSecret, cl, p.Access)
    if err != nil {
        return TokenPair{}, err
    }
    refresh, err := sign(i.refreshSecret, cl, p.Refresh)
    if err != nil {
        return TokenPair{}, err
    }
    return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess mints only a new access token, used by the refresh flow.
func (i *Issuer) IssueAccess(cl Claims, m Method) (SignedToken, error) {
    cl.Method = m
    return sign(i.accessSecret, cl, i.policy(m).Access)
}

// VerifyAccess validates an access token and returns its claims.
func (i *Issuer) VerifyAccess(token string) (Claims, error) {
    return verify(i.accessSecret, token)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (i *Issuer) VerifyRefresh(token string) (Claims, error) {
    return verify(i.refreshSecret, token)
}

// sign builds and signs an HS256 JWT carrying the identity claims.  The
// JWT includes subject (sub), email, name, role, method, expiration (exp)
// and issued at (iat).
func sign(secret []byte, cl Claims, ttl time.Duration) (SignedToken, error) {
    exp := time.Now().UTC().Add(ttl)
    claims := jwt.MapClaims{
        "sub":    cl.UserID,
        "email":  cl.Email,
        "name":   cl.Name,
        "role":   cl.Role,
        "method": string(cl.Method),
        "exp":    exp.Unix(),
        "iat":    time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString(secret)
    if err != nil {
        return SignedToken{}, err
    }
    return SignedToken{Token: signed, Exp: exp}, nil
}

// verify parses a signed token, enforcing the HMAC signing method, and
// converts its claims back into a Claims value.  Any failure (wrong
// algorithm, bad signature, expiry, missing subject) collapses into
// ErrInvalidToken.
func verify(secret []byte, token string) (Claims, error) {
    tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return secret, nil
    })
    if err != nil || !tok.Valid {
        return Claims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return Claims{}, ErrInvalidToken
    }
    sub, ok := mc["sub"].(float64) // JSON numbers decode as float64
    if !ok || sub <= 0 {
        return Claims{}, ErrInvalidToken
    }
    cl := Claims{UserID: uint64(sub)}
    cl.Email, _ = mc["email"].(string)
    cl.Name, _ = mc["name"].(string)
    cl.Role, _ = mc["role"].(string)
    if m, _ := mc["method"].(string); m == string(MethodOAuth) {
        cl.Method = MethodOAuth
    } else {
        cl.Method = MethodCredentials
    }
    return cl, nil
}
