package utils

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func testIssuer() *Issuer {
    return NewIssuer("access-secret", "refresh-secret",
        ExpiryPolicy{Access: 20 * time.Minute, Refresh: 7 * 24 * time.Hour},
        ExpiryPolicy{Access: time.Hour, Refresh: 30 * 24 * time.Hour},
    )
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
    iss := testIssuer()
    in := Claims{UserID: 42, Email: "dev@example.com", Name: "Dev", Role: "MEMBER"}

    pair, err := iss.Issue(in, MethodCredentials)
    require.NoError(t, err)
    require.NotEmpty(t, pair.Access.Token)
    require.NotEmpty(t, pair.Refresh.Token)

    got, err := iss.VerifyAccess(pair.Access.Token)
    require.NoError(t, err)
    require.Equal(t, in.UserID, got.UserID)
    require.Equal(t, in.Email, got.Email)
    require.Equal(t, in.Role, got.Role)
    require.Equal(t, MethodCredentials, got.Method)

    ref, err := iss.VerifyRefresh(pair.Refresh.Token)
    require.NoError(t, err)
    require.Equal(t, in.UserID, ref.UserID)
    require.Equal(t, MethodCredentials, ref.Method)
}

func TestMethodSelectsExpiryPolicy(t *testing.T) {
    iss := testIssuer()
    cl := Claims{UserID: 1, Role: "MEMBER"}

    cred, err := iss.Issue(cl, MethodCredentials)
    require.NoError(t, err)
    oauth, err := iss.Issue(cl, MethodOAuth)
    require.NoError(t, err)

    // The OAuth policy grants longer lifetimes on both tokens.
    require.True(t, oauth.Access.Exp.After(cred.Access.Exp))
    require.True(t, oauth.Refresh.Exp.After(cred.Refresh.Exp))

    got, err := iss.VerifyRefresh(oauth.Refresh.Token)
    require.NoError(t, err)
    require.Equal(t, MethodOAuth, got.Method)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
    iss := testIssuer()
    other := NewIssuer("different", "different",
        ExpiryPolicy{Access: time.Minute, Refresh: time.Hour},
        ExpiryPolicy{Access: time.Minute, Refresh: time.Hour},
    )

    pair, err := iss.Issue(Claims{UserID: 1, Role: "ADMIN"}, MethodCredentials)
    require.NoError(t, err)

    _, err = other.VerifyAccess(pair.Access.Token)
    require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenNotValidAsRefresh(t *testing.T) {
    iss := testIssuer()
    pair, err := iss.Issue(Claims{UserID: 1, Role: "ADMIN"}, MethodCredentials)
    require.NoError(t, err)

    // Distinct signing secrets keep the two token kinds apart.
    _, err = iss.VerifyRefresh(pair.Access.Token)
    require.ErrorIs(t, err, ErrInvalidToken)
    _, err = iss.VerifyAccess(pair.Refresh.Token)
    require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
    iss := NewIssuer("s1", "s2",
        ExpiryPolicy{Access: -time.Minute, Refresh: -time.Minute},
        ExpiryPolicy{Access: -time.Minute, Refresh: -time.Minute},
    )
    pair, err := iss.Issue(Claims{UserID: 1, Role: "MEMBER"}, MethodCredentials)
    require.NoError(t, err)

    _, err = iss.VerifyAccess(pair.Access.Token)
    require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
    iss := testIssuer()
    for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
        _, err := iss.VerifyAccess(tok)
        require.ErrorIs(t, err, ErrInvalidToken)
    }
}
