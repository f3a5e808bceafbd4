package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-hub/internal/adapter/gateway"
	adapterhandler "session-hub/internal/adapter/handler"
	"session-hub/internal/domain"
	infrastore "session-hub/internal/infrastructure/store"
	infratoken "session-hub/internal/infrastructure/token"
	"session-hub/internal/usecase"

	"session-hub/config"
	appmiddleware "session-hub/middleware"
	"session-hub/utils/logger"
	"session-hub/utils/otel"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
	}

	// Initialize structured logger
	logger.Init(otelCfg.Enabled)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"auth_api_url", cfg.AuthAPIURL,
		"port", cfg.Port,
		"redis", cfg.RedisAddr != "")

	// Credential store: Redis when configured, in-memory otherwise
	var credStore domain.CredentialStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			slog.ErrorContext(ctx, "failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		cancel()
		credStore = infrastore.NewRedisStore(redisClient, cfg.StoreKeyTag)
	} else {
		slog.InfoContext(ctx, "REDIS_ADDR not set, using in-memory credential store")
		credStore = infrastore.NewMemoryStore()
	}

	authGateway := gateway.NewAuthAPIGateway(cfg.AuthAPIURL, cfg.AuthAPITimeout)

	// Backend token issuing is optional; without a secret the header is omitted
	var issuer domain.TokenIssuer
	if cfg.BackendTokenSecret != "" {
		issuer = infratoken.NewJWTIssuer(infratoken.JWTConfig{
			Secret:   cfg.BackendTokenSecret,
			Issuer:   cfg.BackendTokenIssuer,
			Audience: cfg.BackendTokenAudience,
			TTL:      cfg.BackendTokenTTL,
		})
	}

	// Usecase
	session := usecase.NewSession(authGateway, credStore, slog.Default())

	// Handlers
	loginHandler := adapterhandler.NewLoginHandler(session, issuer)
	registerHandler := adapterhandler.NewRegisterHandler(session)
	resetHandler := adapterhandler.NewPasswordResetHandler(session)
	sessionHandler := adapterhandler.NewSessionHandler(session, issuer)
	healthHandler := adapterhandler.NewHealthHandler()

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = adapterhandler.NewRequestValidator()

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders())

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Rate limiters per endpoint group
	credentialRL := appmiddleware.NewRateLimiter(10.0/60.0, 5) // 10 req/min: login, register, resets
	sessionRL := appmiddleware.NewRateLimiter(60.0/60.0, 10)   // 60 req/min: session reads, logout

	auth := e.Group("/auth")
	auth.POST("/login", loginHandler.Handle, credentialRL.Middleware())
	auth.POST("/register", registerHandler.Handle, credentialRL.Middleware())
	auth.POST("/forgot-password", resetHandler.HandleRequest, credentialRL.Middleware())
	auth.POST("/reset-password", resetHandler.HandleConfirm, credentialRL.Middleware())
	auth.POST("/logout", sessionHandler.HandleLogout, sessionRL.Middleware())
	auth.GET("/session", sessionHandler.HandleCurrent, sessionRL.Middleware())
	auth.GET("/remembered-username", loginHandler.HandleRememberedUsername, sessionRL.Middleware())

	e.GET("/health", healthHandler.Handle)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting session-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
