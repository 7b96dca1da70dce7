package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classmates/content-api/internal/api"
	"github.com/classmates/content-api/internal/api/handler"
	"github.com/classmates/content-api/internal/core/service"
	"github.com/classmates/content-api/internal/infrastructure/config"
	mongodb "github.com/classmates/content-api/internal/infrastructure/db/mongo"
	redisdb "github.com/classmates/content-api/internal/infrastructure/db/redis"
	"github.com/classmates/content-api/internal/infrastructure/queue"
	"github.com/classmates/content-api/internal/infrastructure/security"
	"github.com/classmates/content-api/internal/infrastructure/token"
	"github.com/classmates/content-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{Output: os.Stderr})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "content-api",
	})

	db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		AppName:     "content-api",
		MaxPoolSize: cfg.Mongo.PoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to mongodb")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to redis")
	}
	defer rdb.Close()

	// --- Persistence ---
	users := mongodb.NewUserRepository(db)
	posts := mongodb.NewPostRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure user indexes")
	}
	if err := posts.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure post indexes")
	}
	media, err := mongodb.NewMediaStore(db)
	if err != nil {
		log.Fatal().Err(err).Msg("open media store")
	}

	// --- Security ---
	hasher, err := security.NewHasher(cfg.Hash.Algorithm, cfg.Hash.BcryptCost, security.DefaultArgon2Params())
	if err != nil {
		log.Fatal().Err(err).Msg("configure password hasher")
	}
	issuer, err := token.NewIssuer(token.Config{
		AccessKey:  []byte(cfg.Token.AccessKey),
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshKey: []byte(cfg.Token.RefreshKey),
		RefreshTTL: cfg.Token.RefreshTTL,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configure token issuer")
	}

	// --- Background cleanup ---
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	janitor := queue.NewJanitor(cfg.Media.CleanupWorkers, media, logger.Component("janitor"))
	janitor.Start(janitorCtx)

	// --- Services ---
	urls := service.NewMediaURLs(cfg.BaseURL, cfg.APIPrefix)
	authService := service.NewAuthService(users, hasher, issuer, redisdb.NewDenylist(rdb), logger.Component("auth"))
	userService := service.NewUserService(users, hasher, media, janitor, urls, logger.Component("users"))
	postService := service.NewPostService(posts, media, janitor, urls, logger.Component("posts"))
	videoService := service.NewVideoService(media, janitor, urls, logger.Component("videos"))

	bootstrapper := service.NewBootstrapper(users, hasher, service.AdminAccount{
		Username: cfg.Admin.Username,
		FullName: cfg.Admin.FullName,
		Password: cfg.Admin.Password,
	}, logger.Component("bootstrap"))
	// A failed bootstrap must not block startup.
	if outcome, err := bootstrapper.EnsureAdmin(ctx); err != nil {
		log.Error().Err(err).Str("outcome", string(outcome)).Msg("admin bootstrap failed")
	}

	router := api.NewRouter(api.Deps{
		Config: cfg,
		Log:    logger.Component("http"),
		Auth:   authService,
		Users:  userService,
		Posts:  postService,
		Videos: videoService,
		Media:  media,
		Health: map[string]handler.HealthCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErrors:
		log.Error().Err(err).Msg("http server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	stopJanitor()
	janitor.Wait()
	log.Info().Msg("http server stopped")
}
