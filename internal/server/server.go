// Package server holds the startup and shutdown code shared by the three
// service binaries.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/iliyamo/photo-platform/internal/audit"
	"github.com/iliyamo/photo-platform/internal/auth"
	"github.com/iliyamo/photo-platform/internal/config"
	"github.com/iliyamo/photo-platform/internal/database"
	"github.com/iliyamo/photo-platform/internal/kvstore"
	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/ratelimit"
	"github.com/iliyamo/photo-platform/internal/repository"
)

const shutdownTimeout = 10 * time.Second

// Infra is the backing-service wiring every binary needs.
type Infra struct {
	Cfg        config.Config
	DB         *sqlx.DB
	Redis      *redis.Client
	Mongo      *mongo.Client
	AuditStore *audit.MongoStore
	Audit      *audit.Logger
	Limiter    *ratelimit.Limiter
	Users      *repository.UserRepo
	Tokens     *auth.Service
}

// Bootstrap loads configuration, initializes logging and connects to
// MySQL, MongoDB and Redis. An unreachable Redis is logged, not fatal.
func Bootstrap(service string) (*Infra, error) {
	cfg := config.Load(service)
	if err := logger.Initialize(cfg.LogLevel, service); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	mc, err := database.OpenMongo(cfg.MongoURI)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mongodb: %w", err)
	}
	store := audit.NewMongoStore(mc.Database(cfg.MongoDatabase))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Log.Warnw("audit index creation failed", "error", err)
	}

	rdb, err := config.NewRedisClient()
	if err != nil {
		logger.Log.Warnw("redis unreachable at startup; rate limiting disabled until it recovers, tokens cannot be verified", "error", err)
	}
	flags := kvstore.NewRedisStore(rdb)

	var limiter *ratelimit.Limiter
	if rl := config.LoadRateLimitConfig(); rl.Enabled {
		if limiter, err = ratelimit.New(flags, rl.Prefix, rl.Rules); err != nil {
			return nil, fmt.Errorf("rate limit config: %w", err)
		}
	}

	users := repository.NewUserRepo(db)
	signer := auth.NewSigner(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)
	tokens := auth.NewService(signer, repository.NewTokenRepo(db), users, flags, time.Duration(cfg.RefreshTTLDays)*24*time.Hour)

	return &Infra{
		Cfg:        cfg,
		DB:         db,
		Redis:      rdb,
		Mongo:      mc,
		AuditStore: store,
		Audit:      audit.NewLogger(store),
		Limiter:    limiter,
		Users:      users,
		Tokens:     tokens,
	}, nil
}

// Close releases every connection.
func (i *Infra) Close() {
	if err := i.DB.Close(); err != nil {
		logger.Log.Warnw("mysql close", "error", err)
	}
	if err := i.Redis.Close(); err != nil {
		logger.Log.Warnw("redis close", "error", err)
	}
	if err := i.Mongo.Disconnect(context.Background()); err != nil {
		logger.Log.Warnw("mongodb close", "error", err)
	}
	logger.Sync()
}

// Serve runs e on port until ctx is cancelled or SIGINT/SIGTERM arrives,
// then drains in-flight requests.
func Serve(ctx context.Context, e *echo.Echo, port string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Log.Infow("listening", "addr", ":"+port)
		errc <- e.Start(":" + port)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Log.Infow("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
