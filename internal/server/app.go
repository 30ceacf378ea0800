// Package server initializes and runs the auth application server.
// It opens the storage backends, runs migrations, wires the session services,
// and handles graceful shutdown of the HTTP endpoint and the background queue.
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
	"github.com/redis/go-redis/v9"

	"github.com/temporalwh/authcore/internal/logging"
	"github.com/temporalwh/authcore/internal/server/authsvc"
	"github.com/temporalwh/authcore/internal/server/config"
	"github.com/temporalwh/authcore/internal/server/directory"
	"github.com/temporalwh/authcore/internal/server/httpapi"
	"github.com/temporalwh/authcore/internal/server/repositories/repomanager"
	"github.com/temporalwh/authcore/internal/server/revocation"
	"github.com/temporalwh/authcore/internal/server/taskqueue"
	"github.com/temporalwh/authcore/internal/server/tokens"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	queue   *taskqueue.Queue
	httpSrv *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	revocations := revocation.NewRedisCache(rdb)

	issuer := tokens.NewIssuer([]byte(c.SecretKey), c.Issuer, c.Audience, c.AccessTokenValidityDuration)
	dir := directory.NewService(repos.Users(db))
	queue := taskqueue.New(logger, c.ShutdownGracePeriod)

	auth := authsvc.NewService(db, repos, dir, issuer, revocations, queue, logger, c.RefreshTokenValidityDuration)
	httpSrv := httpapi.NewServer(c.EndpointAddr, auth, issuer, revocations, logger)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		redis:   rdb,
		queue:   queue,
		httpSrv: httpSrv,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.queue.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpSrv.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
	if err := app.redis.Close(); err != nil {
		app.logger.Error(ctx, "redis close error", "error", err.Error())
	}
}
