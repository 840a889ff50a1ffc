// Package httpserver exposes the auth and upload services over HTTP and
// enforces the page-level route guard.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/lifeledger/lifeledger/internal/logging"
	"github.com/lifeledger/lifeledger/internal/server/auth"
	"github.com/lifeledger/lifeledger/internal/server/token"
	"github.com/lifeledger/lifeledger/internal/server/uploads"
)

// AuthService is the slice of auth.Service the handlers need.
type AuthService interface {
	SignIn(ctx context.Context, w http.ResponseWriter, username, password string) auth.Result
	SignUp(ctx context.Context, username, password, email string) auth.Result
	ConfirmSignUp(ctx context.Context, username, code string) auth.Result
	ResendCode(ctx context.Context, username string) auth.Result
	ForgotPassword(ctx context.Context, username string) auth.Result
	ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) auth.Result
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) auth.Result
	Session(w http.ResponseWriter, r *http.Request) auth.Result
}

// UploadService is the slice of uploads.Service the handlers need.
type UploadService interface {
	CreateGrant(ctx context.Context, userID, filename, contentType string, size int64) (*uploads.Grant, error)
	Confirm(ctx context.Context, userID, key, filename, contentType string) error
	List(ctx context.Context, userID string) ([]*uploads.DocumentView, error)
}

// SessionResolver yields the current session claims, refreshing expired
// identity tokens as a side effect on the response writer.
type SessionResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) (*token.Claims, string)
}

type Server struct {
	address  string
	logger   logging.Logger
	auth     AuthService
	uploads  UploadService
	resolver SessionResolver
}

func NewServer(address string, l logging.Logger, as AuthService, us UploadService, sr SessionResolver) *Server {
	return &Server{
		address:  address,
		logger:   l.With("module", "http_server"),
		auth:     as,
		uploads:  us,
		resolver: sr,
	}
}

// Routes assembles the full handler chain: method-scoped API routes inside,
// route guard and request logging outside.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/confirm", s.handleConfirm)
	mux.HandleFunc("POST /api/auth/resend", s.handleResend)
	mux.HandleFunc("POST /api/auth/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", s.handleResetPassword)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/session", s.handleSession)

	mux.HandleFunc("GET /api/uploads", s.handleUploadList)
	mux.HandleFunc("POST /api/uploads", s.handleUploadGrant)
	mux.HandleFunc("POST /api/uploads/confirm", s.handleUploadConfirm)

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s.withRequestLogging(s.withRouteGuard(mux))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
