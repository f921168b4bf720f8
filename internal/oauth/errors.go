package oauth

import "errors"

// ErrVerificationFailed is returned when an assertion is invalid, expired,
// or missing the required email/name claims.  Callers translate it into a
// 401 without distinguishing the underlying cause to the client.
var ErrVerificationFailed = errors.New("provider verification failed")
