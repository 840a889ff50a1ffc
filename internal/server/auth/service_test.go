package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeledger/lifeledger/internal/logging"
	"github.com/lifeledger/lifeledger/internal/server/idp"
	"github.com/lifeledger/lifeledger/internal/server/session"
)

// -------- test fakes --------

type fakeProvider struct {
	idp.Provider

	signInCreds *idp.Credentials
	signInErr   error

	signUpConfirmed bool
	signUpErr       error

	confirmErr error
	resendErr  error
	forgotErr  error
	resetErr   error

	signOutErr    error
	signOutCalls  int
	signOutToken  string
	forgotCalls   int
	gotUsername   string
	gotPassword   string
	gotEmail      string
	gotResetCode  string
	gotResetToken string
}

func (f *fakeProvider) SignIn(ctx context.Context, username, password string) (*idp.Credentials, error) {
	f.gotUsername, f.gotPassword = username, password
	return f.signInCreds, f.signInErr
}

func (f *fakeProvider) SignUp(ctx context.Context, username, password, email string) (bool, error) {
	f.gotUsername, f.gotPassword, f.gotEmail = username, password, email
	return f.signUpConfirmed, f.signUpErr
}

func (f *fakeProvider) ConfirmSignUp(ctx context.Context, username, code string) error {
	return f.confirmErr
}

func (f *fakeProvider) ResendCode(ctx context.Context, username string) error {
	return f.resendErr
}

func (f *fakeProvider) ForgotPassword(ctx context.Context, username string) error {
	f.forgotCalls++
	return f.forgotErr
}

func (f *fakeProvider) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	f.gotResetCode = code
	return f.resetErr
}

func (f *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	f.signOutCalls++
	f.signOutToken = accessToken
	return f.signOutErr
}

// -------- helpers --------

func newService(provider *fakeProvider) (*Service, *session.CookieStore) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cookies := session.NewCookieStore(false)
	resolver := session.NewResolver(cookies, provider, logger)
	return NewService(provider, cookies, resolver, logger), cookies
}

func providerErr(code idp.Code) error {
	return &idp.Error{Code: code, Message: "detail from provider"}
}

// -------- tests --------

func TestSignIn_Success_SetsTriple(t *testing.T) {
	provider := &fakeProvider{
		signInCreds: &idp.Credentials{IDToken: "id", AccessToken: "access", RefreshToken: "refresh"},
	}
	s, _ := newService(provider)
	rec := httptest.NewRecorder()

	res := s.SignIn(context.Background(), rec, "alice", "pw")

	assert.True(t, res.Success)
	assert.Len(t, rec.Result().Cookies(), 3)
}

func TestSignIn_EnumerationResistance(t *testing.T) {
	// A nonexistent username and a wrong password must be indistinguishable.
	missing := &fakeProvider{signInErr: providerErr(idp.CodeUserNotFound)}
	wrongPw := &fakeProvider{signInErr: providerErr(idp.CodeInvalidCredentials)}

	s1, _ := newService(missing)
	s2, _ := newService(wrongPw)

	res1 := s1.SignIn(context.Background(), httptest.NewRecorder(), "ghost", "pw")
	res2 := s2.SignIn(context.Background(), httptest.NewRecorder(), "alice", "wrong")

	assert.Equal(t, res1, res2)
	assert.False(t, res1.Success)
	assert.Equal(t, "Incorrect username or password.", res1.Error)
}

func TestSignIn_Unconfirmed_NoCookies(t *testing.T) {
	provider := &fakeProvider{signInErr: providerErr(idp.CodeUserNotConfirmed)}
	s, _ := newService(provider)
	rec := httptest.NewRecorder()

	res := s.SignIn(context.Background(), rec, "alice", "pw")

	assert.False(t, res.Success)
	assert.Equal(t, NextStepConfirmSignUp, res.NextStep)
	assert.Empty(t, res.Error)
	assert.Empty(t, rec.Result().Cookies(), "no cookies on the needs-confirmation path")
}

func TestSignIn_UnknownFailure_GenericMessage(t *testing.T) {
	provider := &fakeProvider{signInErr: errors.New("pool on fire")}
	s, _ := newService(provider)

	res := s.SignIn(context.Background(), httptest.NewRecorder(), "alice", "pw")

	assert.False(t, res.Success)
	assert.Equal(t, "An unexpected error occurred.", res.Error)
	assert.NotContains(t, res.Error, "pool on fire", "provider detail must not surface")
}

func TestSignUp_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		provider  *fakeProvider
		wantOK    bool
		wantStep  string
		wantCode  string
		wantError string
	}{
		{
			name:     "needs confirmation",
			provider: &fakeProvider{signUpConfirmed: false},
			wantOK:   true,
			wantStep: NextStepConfirmSignUp,
		},
		{
			name:     "immediately confirmed",
			provider: &fakeProvider{signUpConfirmed: true},
			wantOK:   true,
		},
		{
			name:      "username taken",
			provider:  &fakeProvider{signUpErr: providerErr(idp.CodeUsernameExists)},
			wantCode:  string(idp.CodeUsernameExists),
			wantError: "An account with this username already exists.",
		},
		{
			name:      "weak password",
			provider:  &fakeProvider{signUpErr: providerErr(idp.CodeInvalidPassword)},
			wantCode:  string(idp.CodeInvalidPassword),
			wantError: "Password does not meet the requirements listed below.",
		},
		{
			name:      "invalid parameter passes provider detail",
			provider:  &fakeProvider{signUpErr: providerErr(idp.CodeInvalidParameter)},
			wantCode:  string(idp.CodeInvalidParameter),
			wantError: "detail from provider",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newService(tc.provider)
			res := s.SignUp(context.Background(), "alice", "pw", "a@example.com")
			assert.Equal(t, tc.wantOK, res.Success)
			assert.Equal(t, tc.wantStep, res.NextStep)
			if tc.wantCode != "" {
				assert.Equal(t, tc.wantCode, res.ErrorCode)
			}
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, res.Error)
			}
		})
	}
}

func TestConfirmSignUp_CodeFailures(t *testing.T) {
	tests := []struct {
		name string
		code idp.Code
		want string
	}{
		{name: "mismatch", code: idp.CodeCodeMismatch, want: "Invalid verification code. Please try again."},
		{name: "expired", code: idp.CodeCodeExpired, want: "Verification code has expired. Request a new one."},
		{name: "rate limited", code: idp.CodeRateLimited, want: "Too many attempts. Please wait and try again."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newService(&fakeProvider{confirmErr: providerErr(tc.code)})
			res := s.ConfirmSignUp(context.Background(), "alice", "123456")
			assert.False(t, res.Success)
			assert.Equal(t, tc.want, res.Error)
		})
	}
}

func TestResendCode_PassesProviderMessage(t *testing.T) {
	s, _ := newService(&fakeProvider{resendErr: providerErr(idp.CodeRateLimited)})

	res := s.ResendCode(context.Background(), "alice")

	assert.False(t, res.Success)
	assert.Equal(t, "detail from provider", res.Error)
}

func TestForgotPassword_UserNotFoundReportsSuccess(t *testing.T) {
	provider := &fakeProvider{forgotErr: providerErr(idp.CodeUserNotFound)}
	s, _ := newService(provider)
	rec := httptest.NewRecorder()

	res := s.ForgotPassword(context.Background(), "ghost")

	assert.True(t, res.Success, "existence must not leak through the reset flow")
	assert.Empty(t, res.Error)
	assert.Empty(t, rec.Result().Cookies())
}

func TestForgotPassword_RateLimitedIsDistinct(t *testing.T) {
	s, _ := newService(&fakeProvider{forgotErr: providerErr(idp.CodeRateLimited)})

	res := s.ForgotPassword(context.Background(), "alice")

	assert.False(t, res.Success)
	assert.Equal(t, string(idp.CodeRateLimited), res.ErrorCode)
}

func TestConfirmForgotPassword_WeakPassword(t *testing.T) {
	s, _ := newService(&fakeProvider{resetErr: providerErr(idp.CodeInvalidPassword)})

	res := s.ConfirmForgotPassword(context.Background(), "alice", "123456", "weak")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Password does not meet requirements")
}

func TestSignOut_ClearsCookiesEvenWhenProviderFails(t *testing.T) {
	provider := &fakeProvider{signOutErr: errors.New("token already revoked")}
	s, _ := newService(provider)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: session.AccessTokenCookie, Value: "expired-access"})

	res := s.SignOut(context.Background(), rec, r)

	assert.True(t, res.Success)
	assert.Equal(t, 1, provider.signOutCalls)
	assert.Equal(t, "expired-access", provider.signOutToken)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 3)
	for _, c := range cookies {
		assert.Negative(t, c.MaxAge, "cookie %s must be cleared despite provider failure", c.Name)
	}
}

func TestSignOut_NoAccessToken_SkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	s, _ := newService(provider)

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)

	res := s.SignOut(context.Background(), rec, r)

	assert.True(t, res.Success)
	assert.Zero(t, provider.signOutCalls)
	assert.Len(t, rec.Result().Cookies(), 3)
}

func TestSession_NoCookies(t *testing.T) {
	s, _ := newService(&fakeProvider{})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)

	res := s.Session(rec, r)
	assert.False(t, res.Success)
	assert.Nil(t, res.User)
}
