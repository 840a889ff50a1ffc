// Package server assembles and runs the LifeLedger backend: it wires the
// identity provider, session management, upload broker, and database, then
// serves them over HTTP until shut down.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lifeledger/lifeledger/internal/logging"
	"github.com/lifeledger/lifeledger/internal/server/auth"
	"github.com/lifeledger/lifeledger/internal/server/config"
	"github.com/lifeledger/lifeledger/internal/server/httpserver"
	"github.com/lifeledger/lifeledger/internal/server/idp"
	"github.com/lifeledger/lifeledger/internal/server/repositories/repomanager"
	"github.com/lifeledger/lifeledger/internal/server/session"
	"github.com/lifeledger/lifeledger/internal/server/uploads"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	auth   *auth.Service
	upload *uploads.Service
	rs     *session.Resolver
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	provider, err := idp.NewCognito(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("identity provider init error: %w", err)
	}

	cookies := session.NewCookieStore(c.SecureCookies)
	resolver := session.NewResolver(cookies, provider, logger)

	as := auth.NewService(provider, cookies, resolver, logger)
	us := uploads.NewService(db, rm, c)

	return &App{config: c, logger: logger, db: db, auth: as, upload: us, rs: resolver}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpserver.NewServer(app.config.EndpointAddrHTTP, app.logger, app.auth, app.upload, app.rs)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
}
