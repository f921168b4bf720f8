package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
    cases := []struct {
        in   string
        want time.Duration
    }{
        {"20m", 20 * time.Minute},
        {"1h", time.Hour},
        {"7d", 7 * 24 * time.Hour},
        {"30d", 30 * 24 * time.Hour},
        {" 1d ", 24 * time.Hour},
    }
    for _, tc := range cases {
        got, err := ParseTTL(tc.in)
        require.NoError(t, err, tc.in)
        require.Equal(t, tc.want, got, tc.in)
    }

    for _, bad := range []string{"", "d", "1w", "x7d"} {
        _, err := ParseTTL(bad)
        require.Error(t, err, bad)
    }
}
