package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced alongside authentication failures. Clients get the
// human readable message; the codes exist for log correlation.
const (
	TextCodeTokenNotValid      = "TOKEN_NOT_VALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenInvalid       = "TOKEN_INVALID"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrTokenNotValid is returned when the authorization header is missing or
// is not exactly "<scheme> <token>".
var ErrTokenNotValid = errors.New("Token not valid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenNotValid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their embedded expiry. The
// message tells the client what to do about it.
var ErrTokenExpired = errors.New("Token is expired, login again", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers tampered signatures, unexpected algorithms and
// strings that do not parse as a token at all.
var ErrTokenInvalid = errors.New("Token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when a valid token names a user that no longer
// exists. Distinct from ErrTokenInvalid to aid diagnosis; both are 401s.
var ErrUserNotFound = errors.New("No user for token", errors.CategoryAuth).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is the uniform login failure. Unknown identifier and
// wrong password produce this same value so responses cannot be used to
// enumerate accounts.
var ErrInvalidCredentials = errors.New("Invalid credentials, try again", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned when a password does not match
// its stored hash.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty input where a value is required.
var ErrNoEmptyString = errors.New("value must be a non empty string", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check the error chain for a structurally malformed
// token. Wrapped errors render only their own message, so walk the sources.
func IsMalformedError(err error) bool {
	for err != nil {
		msg := err.Error()
		if strings.Contains(msg, "token is malformed") ||
			strings.Contains(msg, "missing or malformed JWT") {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
