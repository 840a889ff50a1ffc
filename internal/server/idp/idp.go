// Package idp wraps the managed identity provider behind a small interface
// and a closed error taxonomy. Provider-specific error identifiers are
// translated here, at the boundary, and never escape as raw SDK errors.
package idp

import (
	"context"
	"errors"
)

// Code is the closed set of provider failure conditions the rest of the
// server is allowed to distinguish.
type Code string

const (
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeUserNotFound       Code = "user_not_found"
	CodeUserNotConfirmed   Code = "user_not_confirmed"
	CodeUsernameExists     Code = "username_exists"
	CodeInvalidPassword    Code = "invalid_password"
	CodeInvalidParameter   Code = "invalid_parameter"
	CodeCodeMismatch       Code = "code_mismatch"
	CodeCodeExpired        Code = "code_expired"
	CodeRateLimited        Code = "rate_limited"
	CodeChallengeRequired  Code = "challenge_required"
	CodeUnknown            Code = "unknown"
)

// Error is a tagged provider failure. Message carries the provider's detail
// text; it is safe to log but only surfaced to users for codes where the
// action layer decides the text is theirs to see.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// CodeOf extracts the taxonomy code from err, or CodeUnknown for anything
// that is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// MessageOf returns the provider detail text carried by err, when present.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// Credentials is the token triple minted by the provider on sign-in.
type Credentials struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
}

// Provider is the surface of the identity provider this server consumes.
// Every method is a single round trip; none retries.
type Provider interface {
	// SignIn runs the username/password flow and returns the full triple.
	SignIn(ctx context.Context, username, password string) (*Credentials, error)

	// SignUp registers a user. confirmed reports whether the pool confirmed
	// the account immediately (no emailed code required).
	SignUp(ctx context.Context, username, password, email string) (confirmed bool, err error)

	// ConfirmSignUp submits the emailed confirmation code.
	ConfirmSignUp(ctx context.Context, username, code string) error

	// ResendCode requests a fresh confirmation code.
	ResendCode(ctx context.Context, username string) error

	// ForgotPassword starts the reset flow. Caller decides how
	// user-not-found is reported.
	ForgotPassword(ctx context.Context, username string) error

	// ConfirmForgotPassword completes the reset flow with code + new password.
	ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error

	// SignOut revokes the user's tokens globally, best effort.
	SignOut(ctx context.Context, accessToken string) error

	// Refresh exchanges a refresh token for a new identity/access pair. The
	// provider does not rotate the refresh token on this path. username is
	// needed for the keyed secret hash and comes from the expired token's
	// claims.
	Refresh(ctx context.Context, refreshToken, username string) (idToken, accessToken string, err error)
}
