// Package server initializes and runs the bankauth server.
// It configures the storage backend, token services, the cleanup scheduler,
// the metrics endpoint and the gRPC server, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/bankauth/internal/cryptox"
	"github.com/dmitrijs2005/bankauth/internal/logging"
	"github.com/dmitrijs2005/bankauth/internal/server/auth"
	"github.com/dmitrijs2005/bankauth/internal/server/cleanup"
	"github.com/dmitrijs2005/bankauth/internal/server/config"
	"github.com/dmitrijs2005/bankauth/internal/server/events"
	"github.com/dmitrijs2005/bankauth/internal/server/metrics"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bankauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bankauth/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/bankauth/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	repomanager  repomanager.RepositoryManager
	forge        *auth.Forge
	tokenService *services.TokenService
	userService  *services.UserService
	registry     *prometheus.Registry
	lease        cleanup.Lease
	closers      []func()
}

// NewApp wires every dependency described by c. Call Close when done.
func NewApp(c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	return newApp(c, logger)
}

// openDB is replaced in tests.
var openDB = sql.Open

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	a := &App{config: c, logger: logger, lease: cleanup.NopLease{}}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (app *App) init() error {
	c := app.config
	settings := refreshtokens.Settings{Validity: c.RefreshTokenValidityDuration}

	if c.UsesMemoryStorage() {
		app.logger.Warn(context.Background(), "using in-memory storage, state is lost on restart")
		app.repomanager = repomanager.NewMemoryRepositoryManager(settings)
	} else {
		db, err := openDB("pgx", c.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
		app.closers = append(app.closers, func() { _ = db.Close() })

		app.repomanager, err = repomanager.NewPostgresRepositoryManager(db, settings)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
	}

	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, func() { _ = client.Close() })
		app.lease = cleanup.NewRedisLease(client, cleanup.DefaultLeaseKey)
	}

	var publisher events.Publisher = events.Nop{}
	if c.NatsURL != "" {
		p, err := events.Connect(c.NatsURL)
		if err != nil {
			return fmt.Errorf("nats connect error: %w", err)
		}
		app.closers = append(app.closers, p.Close)
		publisher = p
	}

	var err error
	app.forge, err = auth.NewForge(auth.ForgeConfig{
		SecretKey: c.SecretKey,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		Validity:  c.AccessTokenValidityDuration,
	})
	if err != nil {
		return err
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app.tokenService = services.NewTokenService(app.repomanager, app.forge,
		services.WithLogger(app.logger),
		services.WithMetrics(metrics.New(app.registry)),
		services.WithEvents(publisher),
	)

	app.userService, err = services.NewUserService(app.repomanager, app.tokenService, cryptox.NewArgon2(cryptox.DefaultParams), app.logger)
	return err
}

// Close releases connections in reverse order of acquisition.
func (app *App) Close() {
	if app == nil {
		return
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

// Migrate applies pending schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// SweepOnce runs a single cleanup pass and returns the number of removed tokens.
func (app *App) SweepOnce(ctx context.Context) (int64, error) {
	return app.tokenService.Sweep(ctx)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context) error {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.forge)

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}
	return nil
}

func (app *App) startMetricsServer(ctx context.Context) error {

	srv := metrics.NewServer(app.config.MetricsAddr, app.registry)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Run migrates the schema and serves until ctx is cancelled or a signal
// arrives. The cleanup scheduler runs alongside the servers. A server that
// fails stops the others and its error is returned.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(ctx, cancelFunc)

	scheduler := cleanup.NewScheduler(app.tokenService,
		cleanup.WithLogger(app.logger),
		cleanup.WithIntervals(app.config.SweepInterval, app.config.SweepRetryInterval),
		cleanup.WithLease(app.lease),
	)

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		runErr   error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		app.logger.Error(ctx, err.Error())
		failOnce.Do(func() { runErr = err })
		cancelFunc()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		fail(app.startGRPCServer(ctx))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fail(app.startMetricsServer(ctx))
		}()
	}

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return runErr
}
