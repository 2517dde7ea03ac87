package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"subscription-shop/internal/auth"
	"subscription-shop/internal/config"
	"subscription-shop/internal/database"
	"subscription-shop/internal/handlers"
	"subscription-shop/internal/jobs"
	"subscription-shop/internal/logging"
	"subscription-shop/internal/notify"
	"subscription-shop/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Production)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Shop stopped with error", zap.Error(err))
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)
	gin.SetMode(cfg.Server.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Run migrations
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		logger.Info("Database migrations completed")
	}

	// Outbound chat messages; without a bot token they only reach the log
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Telegram.BotToken != "" {
		bot, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken)
		if err != nil {
			return err
		}
		logger.Info("Telegram notifier ready", zap.String("bot", bot.Username()))
		cfg.Telegram.BotUsername = bot.Username()
		notifier = bot
	}
	dispatcher := notify.NewDispatcher(notifier, cfg.App.AdminIDs, logger)

	repo := repository.NewRepository(db)
	router := handlers.NewRouter(cfg, handlers.NewServices(repo, cfg, dispatcher, logger), db, logger)

	watcher := jobs.NewExpiryWatcher(
		repo,
		dispatcher,
		cfg.Watcher.Interval,
		cfg.Watcher.Lookahead,
		cfg.CivilLocation(),
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return watcher.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		// Graceful shutdown with 5 second timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
