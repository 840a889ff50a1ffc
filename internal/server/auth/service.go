// Package auth orchestrates the user-facing account actions against the
// identity provider. Each action is a single provider round trip; cookie
// side effects happen only on success paths, except sign-out, which clears
// cookies on every path including provider failure.
package auth

import (
	"context"
	"net/http"

	"github.com/lifeledger/lifeledger/internal/logging"
	"github.com/lifeledger/lifeledger/internal/server/idp"
	"github.com/lifeledger/lifeledger/internal/server/session"
)

// NextStepConfirmSignUp tells the client the account exists but still needs
// its emailed confirmation code.
const NextStepConfirmSignUp = "CONFIRM_SIGN_UP"

// User-facing message strings. Sign-in failures deliberately do not
// distinguish a missing user from a wrong password.
const (
	msgUnexpected        = "An unexpected error occurred."
	msgBadCredentials    = "Incorrect username or password."
	msgChallenge         = "Additional authentication step required."
	msgUsernameExists    = "An account with this username already exists."
	msgWeakPassword      = "Password does not meet the requirements listed below."
	msgBadInput          = "Please check your input and try again."
	msgCodeMismatch      = "Invalid verification code. Please try again."
	msgCodeExpired       = "Verification code has expired. Request a new one."
	msgRateLimited       = "Too many attempts. Please wait and try again."
	msgResetCodeMismatch = "Invalid verification code."
	msgResetCodeExpired  = "Code has expired. Please request a new one."
	msgResetWeakPassword = "Password does not meet requirements. Use at least 8 characters with uppercase, lowercase, numbers, and symbols."
	msgResetRateLimited  = "Too many attempts. Please wait."
)

// User is the authenticated subject as seen by the client.
type User struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Result is the uniform outcome of one auth action.
type Result struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	NextStep  string `json:"nextStep,omitempty"`
	User      *User  `json:"user,omitempty"`
}

func failure(code idp.Code, msg string) Result {
	return Result{Success: false, ErrorCode: string(code), Error: msg}
}

// Service maps user actions onto the provider and the cookie store.
type Service struct {
	provider idp.Provider
	cookies  *session.CookieStore
	resolver *session.Resolver
	logger   logging.Logger
}

func NewService(provider idp.Provider, cookies *session.CookieStore, resolver *session.Resolver, logger logging.Logger) *Service {
	return &Service{provider: provider, cookies: cookies, resolver: resolver, logger: logger}
}

// SignIn authenticates and, on success, stores the credential triple.
func (s *Service) SignIn(ctx context.Context, w http.ResponseWriter, username, password string) Result {
	creds, err := s.provider.SignIn(ctx, username, password)
	if err != nil {
		switch idp.CodeOf(err) {
		case idp.CodeInvalidCredentials, idp.CodeUserNotFound:
			// One message for both; existence must not leak.
			return failure(idp.CodeInvalidCredentials, msgBadCredentials)
		case idp.CodeUserNotConfirmed:
			return Result{Success: false, ErrorCode: string(idp.CodeUserNotConfirmed), NextStep: NextStepConfirmSignUp}
		case idp.CodeChallengeRequired:
			return failure(idp.CodeChallengeRequired, msgChallenge)
		default:
			s.logger.Error(ctx, "sign-in failed", "error", err)
			return failure(idp.CodeUnknown, msgUnexpected)
		}
	}

	s.cookies.Set(w, creds)
	return Result{Success: true}
}

// SignUp registers an account. No session is established.
func (s *Service) SignUp(ctx context.Context, username, password, email string) Result {
	confirmed, err := s.provider.SignUp(ctx, username, password, email)
	if err != nil {
		switch idp.CodeOf(err) {
		case idp.CodeUsernameExists:
			return failure(idp.CodeUsernameExists, msgUsernameExists)
		case idp.CodeInvalidPassword:
			return failure(idp.CodeInvalidPassword, msgWeakPassword)
		case idp.CodeInvalidParameter:
			msg := idp.MessageOf(err)
			if msg == "" {
				msg = msgBadInput
			}
			return failure(idp.CodeInvalidParameter, msg)
		default:
			s.logger.Error(ctx, "sign-up failed", "error", err)
			return failure(idp.CodeUnknown, msgUnexpected)
		}
	}

	if confirmed {
		return Result{Success: true}
	}
	return Result{Success: true, NextStep: NextStepConfirmSignUp}
}

// ConfirmSignUp submits the emailed verification code.
func (s *Service) ConfirmSignUp(ctx context.Context, username, code string) Result {
	if err := s.provider.ConfirmSignUp(ctx, username, code); err != nil {
		switch idp.CodeOf(err) {
		case idp.CodeCodeMismatch:
			return failure(idp.CodeCodeMismatch, msgCodeMismatch)
		case idp.CodeCodeExpired:
			return failure(idp.CodeCodeExpired, msgCodeExpired)
		case idp.CodeRateLimited:
			return failure(idp.CodeRateLimited, msgRateLimited)
		default:
			s.logger.Error(ctx, "sign-up confirmation failed", "error", err)
			return failure(idp.CodeUnknown, msgUnexpected)
		}
	}
	return Result{Success: true}
}

// ResendCode requests a fresh confirmation code. Provider failure text is
// passed through.
func (s *Service) ResendCode(ctx context.Context, username string) Result {
	if err := s.provider.ResendCode(ctx, username); err != nil {
		msg := idp.MessageOf(err)
		if msg == "" {
			msg = msgUnexpected
		}
		return failure(idp.CodeOf(err), msg)
	}
	return Result{Success: true}
}

// ForgotPassword starts the reset flow. A nonexistent username is reported
// as success so the endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, username string) Result {
	if err := s.provider.ForgotPassword(ctx, username); err != nil {
		switch idp.CodeOf(err) {
		case idp.CodeUserNotFound:
			return Result{Success: true}
		case idp.CodeRateLimited:
			return failure(idp.CodeRateLimited, "Too many attempts. Please wait before trying again.")
		default:
			s.logger.Error(ctx, "password reset request failed", "error", err)
			return failure(idp.CodeUnknown, msgUnexpected)
		}
	}
	return Result{Success: true}
}

// ConfirmForgotPassword completes the reset flow.
func (s *Service) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) Result {
	if err := s.provider.ConfirmForgotPassword(ctx, username, code, newPassword); err != nil {
		switch idp.CodeOf(err) {
		case idp.CodeCodeMismatch:
			return failure(idp.CodeCodeMismatch, msgResetCodeMismatch)
		case idp.CodeCodeExpired:
			return failure(idp.CodeCodeExpired, msgResetCodeExpired)
		case idp.CodeInvalidPassword:
			return failure(idp.CodeInvalidPassword, msgResetWeakPassword)
		case idp.CodeRateLimited:
			return failure(idp.CodeRateLimited, msgResetRateLimited)
		default:
			s.logger.Error(ctx, "password reset confirmation failed", "error", err)
			return failure(idp.CodeUnknown, msgUnexpected)
		}
	}
	return Result{Success: true}
}

// SignOut revokes tokens at the provider best effort and clears cookies
// unconditionally. The user-visible contract is "you are now logged out"
// regardless of upstream state, so provider failures are absorbed here.
func (s *Service) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) Result {
	t := s.cookies.Read(r)
	if t.AccessToken != "" {
		if err := s.provider.SignOut(ctx, t.AccessToken); err != nil {
			s.logger.Warn(ctx, "provider sign-out failed, clearing cookies anyway", "error", err)
		}
	}
	s.cookies.Clear(w)
	return Result{Success: true}
}

// Session resolves the current session, renewing transparently when the
// identity token has expired.
func (s *Service) Session(w http.ResponseWriter, r *http.Request) Result {
	claims, _ := s.resolver.Resolve(w, r)
	if claims == nil {
		return Result{Success: false}
	}
	return Result{
		Success: true,
		User: &User{
			UserID:   claims.Subject,
			Username: claims.Username,
			Email:    claims.Email,
		},
	}
}
