package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tracksub/internal/domain/banksync"
	"tracksub/internal/domain/notification"
	"tracksub/internal/domain/subscription"
	"tracksub/internal/infrastructure/finfeed"
	"tracksub/internal/infrastructure/mailer"
	"tracksub/internal/infrastructure/postgres"
	"tracksub/internal/infrastructure/rediscache"
	"tracksub/internal/scheduler"
	"tracksub/internal/shared/auth"
	"tracksub/internal/shared/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect to database and apply migrations
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	log.Println("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	// Optional summary cache
	var summaryCache subscription.SummaryCache
	if cache := rediscache.New(cfg.Redis); cache != nil {
		defer cache.Close()
		summaryCache = cache
		log.Printf("Summary cache enabled (redis at %s)", cfg.Redis.Addr)
	}

	// Initialize services
	jwt := auth.NewJWT(cfg.JWT.Secret)
	subscriptionSvc := subscription.NewService(subscriptionRepo, summaryCache)
	feedClient := finfeed.NewClient(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Feed.PageSize)
	bankSyncSvc := banksync.NewService(userRepo, transactionRepo, subscriptionSvc, feedClient, nil)
	dispatcher := notification.NewDispatcher(userRepo, subscriptionRepo, mailer.New(cfg.Mail))

	// Initialize scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(scheduler.Config{
			ScheduleTimes: cfg.Scheduler.ScheduleTimes,
			WorkerCount:   cfg.Scheduler.WorkerCount,
			JobDelay:      cfg.Scheduler.JobDelay,
			QueueSize:     cfg.Scheduler.QueueSize,
			RunOnStartup:  cfg.Scheduler.RunOnStartup,
			JobProvider:   scheduler.ReminderJobProvider(userRepo, dispatcher),
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Shutdown(10 * time.Second)
	} else {
		log.Println("Scheduler is disabled")
	}

	deps := &Dependencies{
		JWT:              jwt,
		UserRepo:         userRepo,
		SubscriptionRepo: subscriptionRepo,
		SubscriptionSvc:  subscriptionSvc,
		BankSyncSvc:      bankSyncSvc,
		Dispatcher:       dispatcher,
		Cfg:              cfg,
	}
	handler := SetupRoutes(deps, cfg)

	// Create server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Println("Server stopped")
	return nil
}
