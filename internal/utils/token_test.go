package utils

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestNewInviteToken(t *testing.T) {
    a, err := NewInviteToken()
    require.NoError(t, err)
    b, err := NewInviteToken()
    require.NoError(t, err)

    require.Len(t, a, 64) // 32 random bytes, hex encoded
    require.NotEqual(t, a, b)
}

func TestFingerprintToken(t *testing.T) {
    fp := FingerprintToken("some-raw-token")
    require.Len(t, fp, 64) // sha256 hex

    // Stable for the same input, distinct otherwise.
    require.Equal(t, fp, FingerprintToken("some-raw-token"))
    require.NotEqual(t, fp, FingerprintToken("some-raw-token2"))
    // The raw token never appears in what gets stored.
    require.NotContains(t, fp, "some-raw-token")
}
