package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"opinions/internal/cache"
	"opinions/internal/config"
	"opinions/internal/db"
	"opinions/internal/enums"
	"opinions/internal/logger"
	"opinions/internal/memstore"
	"opinions/internal/metrics"
	"opinions/internal/middleware"
	"opinions/internal/router"
	"opinions/internal/services"
)

// backend 两种存储实现都满足的接口集合
type backend interface {
	services.ContentStore
	services.ReviewStore
	services.ReactionStore
	services.UserStore
	services.NotificationStore
}

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	// Initialize Store
	store, err := openBackend(ctx, cfg, logger.Component(log, "store"))
	if err != nil {
		return err
	}

	var reactionStore services.ReactionStore = store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "parse REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, cache will fall back to the store")
		}
		reactionStore = services.NewCachedReactionStore(store, cache.NewIDSets(rdb, cfg.HideCacheTTL), logger.Component(log, "cache"))
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Services
	svcLog := logger.Component(log, "services")
	content := services.NewContentService(store, svcLog)
	reviews := services.NewReviewService(store, store, store, m, svcLog)
	visibility := services.NewVisibilityResolver(store, reactionStore)
	reactions := services.NewReactionService(enums.NewReactionConfig(), reactionStore, store, reviews, svcLog)
	listing := services.NewListingService(store, visibility, reactionStore, m, svcLog, cfg.DefaultPerPage)

	// Initialize Gin
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(logger.Component(log, "http")))

	// Setup Sessions
	r.Use(sessions.Sessions("opinions_session", cookie.NewStore([]byte(cfg.SessionSecret))))
	r.Use(middleware.LoadUser(store))

	router.RegisterRoutes(r, router.Deps{
		Content:       content,
		Listing:       listing,
		Reactions:     reactions,
		Reviews:       reviews,
		Visibility:    visibility,
		Notifications: store,
		Gatherer:      reg,
		PerPage:       cfg.DefaultPerPage,
		Log:           logger.Component(log, "handlers"),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("opinions server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openBackend(ctx context.Context, cfg config.Config, log zerolog.Logger) (backend, error) {
	switch cfg.Store {
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	case "postgres", "":
		gdb, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout, log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(gdb, log); err != nil {
			return nil, err
		}
		registry, err := db.NewStatusRegistry(gdb, cfg.StatusCacheTTL)
		if err != nil {
			return nil, err
		}
		return db.NewStore(gdb, registry, log), nil
	}
	return nil, errors.Errorf("unknown STORE %q", cfg.Store)
}
