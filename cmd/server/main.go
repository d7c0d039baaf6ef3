package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Varun5711/bookshelf/internal/auth"
	"github.com/Varun5711/bookshelf/internal/books"
	"github.com/Varun5711/bookshelf/internal/cache"
	"github.com/Varun5711/bookshelf/internal/config"
	"github.com/Varun5711/bookshelf/internal/database"
	"github.com/Varun5711/bookshelf/internal/graph"
	"github.com/Varun5711/bookshelf/internal/handlers"
	"github.com/Varun5711/bookshelf/internal/lock"
	"github.com/Varun5711/bookshelf/internal/logger"
	"github.com/Varun5711/bookshelf/internal/metrics"
	"github.com/Varun5711/bookshelf/internal/middleware"
	"github.com/Varun5711/bookshelf/internal/redis"
	"github.com/Varun5711/bookshelf/internal/service"
	"github.com/Varun5711/bookshelf/internal/storage"
)

func main() {
	log := logger.New("bookshelf-api")
	logger.SetStdLog(log)

	if err := run(log); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

func run(log *logrus.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == config.DevJWTSecret {
		log.Warn("JWT_SECRET not set, using development default (insecure for production)")
	}

	checks := map[string]handlers.Pinger{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		rc, err := redis.NewRedisClient(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()

		redisClient = rc.GetClient()
		checks["redis"] = rc
		log.WithField("addr", cfg.Redis.Addr).Info("Connected to Redis")
	} else {
		log.Info("REDIS_ADDR not set, rate limiting and the shared search cache are disabled")
	}

	var userStorage storage.UserStorage
	if cfg.Database.PrimaryDSN == "" {
		log.Warn("DB_PRIMARY_DSN not set, using in-memory store; data is lost on restart")
		userStorage = storage.NewMemoryUserStorage()
	} else {
		dbManager, err := database.NewDBManager(ctx, database.Config{
			PrimaryDSN:      cfg.Database.PrimaryDSN,
			ReplicaDSNs:     cfg.Database.ReplicaDSNs,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return err
		}
		defer dbManager.Close()

		if cfg.Database.AutoMigrate {
			if err := migrate(ctx, dbManager, redisClient); err != nil {
				return err
			}
			log.Info("Database migrations applied")
		}

		userStorage = storage.NewUserStorage(dbManager)
		checks["database"] = dbManager
		metrics.RegisterPoolStats(registry, dbManager.PoolStats)
		log.WithField("replicas", len(cfg.Database.ReplicaDSNs)).Info("Connected to PostgreSQL")
	}

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	credentials, err := service.NewCredentialStore(userStorage, hasher)
	if err != nil {
		return err
	}
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	searchCache := cache.NewMultiTierCache(cfg.Cache.L1Capacity, redisClient, cfg.Cache.L2TTL)
	searcher := books.NewCachedSearcher(books.NewGoogleClient(books.Config{
		BaseURL:    cfg.Books.BaseURL,
		APIKey:     cfg.Books.APIKey,
		MaxResults: cfg.Books.MaxResults,
		Timeout:    cfg.Books.Timeout,
	}), searchCache, log)

	userService := service.NewUserService(userStorage, credentials, jwtManager,
		service.WithSearcher(searcher),
		service.WithMetrics(m),
		service.WithLogger(log),
	)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		proxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_TRUSTED_PROXIES: %w", err)
		}
		limiter = middleware.NewRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, log,
			middleware.WithTrustedProxies(proxies))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		GraphQL:      graph.NewHandler(graph.NewSchema(userService, log)),
		Auth:         middleware.NewAuthMiddleware(jwtManager, log),
		RateLimiter:  limiter,
		Health:       handlers.NewHealthHandler(checks),
		Metrics:      m,
		Gatherer:     registry,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("port", cfg.Server.Port).Info("Bookshelf API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down bookshelf API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Bookshelf API stopped")
	return nil
}

// migrate applies pending migrations, holding a redis lock when redis is available so that
// instances starting together take turns.
func migrate(ctx context.Context, db *database.DBManager, redisClient *goredis.Client) error {
	if redisClient == nil {
		return db.Migrate(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	l := lock.NewDistributedLock(redisClient, redis.MigrateLockKey, time.Minute)
	return l.WithLock(ctx, db.Migrate)
}
