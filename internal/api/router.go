package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/classmates/content-api/internal/api/cookie"
	"github.com/classmates/content-api/internal/api/handler"
	"github.com/classmates/content-api/internal/api/middleware"
	"github.com/classmates/content-api/internal/core/ports"
	"github.com/classmates/content-api/internal/infrastructure/config"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config *config.Config
	Log    zerolog.Logger

	Auth   ports.AuthService
	Users  ports.UserService
	Posts  ports.PostService
	Videos ports.VideoService
	Media  ports.MediaStore

	// Health maps dependency names to readiness probes.
	Health map[string]handler.HealthCheck
	// Registerer receives the HTTP metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	cookies := cookie.Options{
		Name:     cfg.Cookie.RefreshName,
		Path:     cfg.APIPrefix + "/user",
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	}
	maxUpload := int64(cfg.Limits.MaxUploadMB) << 20

	guard := middleware.NewGuard(d.Auth, cfg.Cookie.AccessName, middleware.Policy, d.Log)
	authHandler := handler.NewAuthHandler(d.Auth, d.Users, cookies)
	userHandler := handler.NewUserHandler(d.Users, maxUpload)
	postHandler := handler.NewPostHandler(d.Posts, maxUpload)
	videoHandler := handler.NewVideoHandler(d.Videos, maxUpload)
	mediaHandler := handler.NewMediaHandler(d.Media)
	healthHandler := handler.NewHealthHandler(d.Health)

	single := echomiddleware.BodyLimit(fmt.Sprintf("%dM", cfg.Limits.MaxUploadMB+1))
	batch := echomiddleware.BodyLimit(fmt.Sprintf("%dM", cfg.Limits.MaxUploadMB*10+1))
	protect := func(op middleware.Operation, extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
		return append(guard.Protect(op), extra...)
	}

	api := e.Group(cfg.APIPrefix)

	// --- Session ---
	api.POST("/user/login", authHandler.SignIn, signInLimiter(cfg.Limits.SignInPerMinute))
	api.POST("/user/refresh", authHandler.Refresh)
	api.POST("/user/logout", authHandler.SignOut, protect(middleware.OpSignOut)...)
	api.GET("/user/me", authHandler.Me, protect(middleware.OpMe)...)

	// --- Users ---
	api.POST("/user", userHandler.Create, protect(middleware.OpUserCreate)...)
	api.GET("/user", userHandler.List, protect(middleware.OpUserList)...)
	api.GET("/user/username/:username", userHandler.GetByUsername, protect(middleware.OpUserGetByUsername)...)
	api.GET("/user/:id", userHandler.Get, protect(middleware.OpUserGet)...)
	api.PATCH("/user/password", userHandler.ChangePassword, protect(middleware.OpUserChangePassword)...)
	api.PATCH("/user/status/:id", userHandler.SetStatus, protect(middleware.OpUserSetStatus)...)
	api.PATCH("/user/image/:id", userHandler.UpdateAvatar, protect(middleware.OpUserUpdateAvatar, single)...)
	api.PATCH("/user/:id", userHandler.Update, protect(middleware.OpUserUpdate)...)
	api.DELETE("/user/:id", userHandler.Delete, protect(middleware.OpUserDelete)...)

	// --- Posts ---
	api.GET("/post", postHandler.List)
	api.GET("/post/:id", postHandler.Get)
	api.POST("/post", postHandler.Create, protect(middleware.OpPostCreate, batch)...)
	api.PATCH("/post/:id", postHandler.Update, protect(middleware.OpPostUpdate, batch)...)
	api.PUT("/post/:id/file", postHandler.ReplaceFile, protect(middleware.OpPostReplaceFile, single)...)
	api.DELETE("/post/:id/file", postHandler.DeleteFile, protect(middleware.OpPostDeleteFile)...)
	api.DELETE("/post/:id", postHandler.Delete, protect(middleware.OpPostDelete)...)

	// --- Videos and media ---
	api.GET("/video", videoHandler.List)
	api.POST("/video/upload", videoHandler.Upload, protect(middleware.OpVideoUpload, single)...)
	api.GET("/uploads/*", mediaHandler.Serve)

	// --- Operations (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

// signInLimiter throttles sign-in attempts per client IP.
func signInLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many sign-in attempts, try again later")
		},
	})
}

// requestLogger emits one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			var ev *zerolog.Event
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			} else {
				ev = log.Info()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
