package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"bookshelf/docs"
	"bookshelf/internal/auth"
	"bookshelf/internal/cache"
	"bookshelf/internal/config"
	"bookshelf/internal/db"
	"bookshelf/internal/handler"
	"bookshelf/internal/logger"
	"bookshelf/internal/metrics"
	"bookshelf/internal/repository"
	"bookshelf/internal/router"
	"bookshelf/internal/service"
)

// @title Bookshelf API
// @version 1.0
// @description Personal book catalog with user registration and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.IsDevelopment(), cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, cfg.IsDevelopment(), log)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if cacheClient == nil {
		log.Info("REDIS_ADDR not set, logout revocation disabled")
	} else if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("redis unreachable, logout revocation degraded", slog.Any("error", err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)

	// Initialize auth components
	tokens, err := auth.NewTokenService(cfg.TokenConfig())
	if err != nil {
		return err
	}
	tokenStore := auth.NewTokenStore(cacheClient)
	m := metrics.New()

	// Initialize services
	userService := service.NewUserService(userRepo, log)
	authService := service.NewAuthService(userService, tokens, tokenStore, m, log)
	bookService := service.NewBookService(bookRepo, m, log)
	guard := auth.NewGuard(tokens, userService, tokenStore)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	e := echo.New()
	router.Register(e, cfg, router.Handlers{
		Auth:  handler.NewAuthHandler(authService, userService),
		Users: handler.NewUserHandler(userService),
		Books: handler.NewBookHandler(bookService),
	}, guard, m, log)

	addr := ":" + cfg.ServerPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", addr), slog.String("docs", "/swagger/index.html"))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
