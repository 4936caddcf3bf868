package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/jobboard/internal/db"
	"github.com/nkiryanov/jobboard/internal/handlers"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/notify"
	"github.com/nkiryanov/jobboard/internal/repository/postgres"
	"github.com/nkiryanov/jobboard/internal/service/application"
	"github.com/nkiryanov/jobboard/internal/service/auth"
	"github.com/nkiryanov/jobboard/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/jobboard/internal/service/job"
	"github.com/nkiryanov/jobboard/internal/service/otp"
	"github.com/nkiryanov/jobboard/internal/service/profile"
	"github.com/nkiryanov/jobboard/internal/service/quota"
	"github.com/nkiryanov/jobboard/internal/service/subscription"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	expirer *subscription.Expirer
	pool    *pgxpool.Pool
	logger  logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if c.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}

	codeSender, err := newSender(c, l)
	if err != nil {
		return nil, err
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	}, storage.User())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	otpService, err := otp.NewService(otp.Config{}, storage.User(), codeSender)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating otp service. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{
		InsecureCookies: c.Environment == logger.EnvDevelopment,
	}, tokenManager, otpService, storage)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	mux := handlers.NewRouter(
		authService,
		job.NewService(storage, quota.New(storage, nil)),
		application.NewService(storage),
		subscription.NewService(subscription.Config{}, storage),
		profile.NewService(storage),
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		expirer:    subscription.NewExpirer(c.ExpireInterval, nil, storage, l),
		pool:       pool,
		logger:     l,
	}, nil
}

type sender interface {
	Send(ctx context.Context, msg notify.Message) error
}

// SMTP sender if mail server configured
// Codes are written to log only in development, elsewhere mail server is required
func newSender(c *Config, l logger.Logger) (sender, error) {
	if c.SMTPHost != "" {
		return notify.NewMailer(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
		}), nil
	}

	if c.Environment != logger.EnvDevelopment {
		return nil, fmt.Errorf("SMTP host is required in %q environment", c.Environment)
	}

	l.Warn("SMTP host is not set, one-time codes are written to log")
	return notify.LogSender{Logger: l}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.pool.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	expirerStopped := s.expirer.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-expirerStopped

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
