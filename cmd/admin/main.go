package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tracksub/internal/domain/banksync"
	"tracksub/internal/domain/notification"
	"tracksub/internal/domain/subscription"
	"tracksub/internal/infrastructure/finfeed"
	"tracksub/internal/infrastructure/mailer"
	"tracksub/internal/infrastructure/postgres"
	"tracksub/internal/shared/config"
)

const usage = `Tracksub Admin CLI - Management commands for the Tracksub API

Usage:
  admin <command> [options]

Commands:
  migrate    Apply pending database migrations
  notify     Run one reminder pass immediately
  sync       Run a bank transaction sync for a user

Examples:
  # Apply migrations
  admin migrate

  # Send today's payment reminders
  admin notify

  # Sync transactions for user 1 with a custom timeout
  admin sync --user-id=1 --timeout=5m
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		runMigrate()
	case "notify":
		runNotify(os.Args[2:])
	case "sync":
		runSync(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		fmt.Print(usage)
		os.Exit(1)
	}
}

func openDB(cfg *config.Config) *postgres.DB {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func runMigrate() {
	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println("Migrations applied")
}

func runNotify(args []string) {
	fs := flag.NewFlagSet("notify", flag.ExitOnError)
	timeout := fs.Duration("timeout", 10*time.Minute, "Timeout for the reminder pass")
	fs.Parse(args)

	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	dispatcher := notification.NewDispatcher(userRepo, subscriptionRepo, mailer.New(cfg.Mail))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sent, err := dispatcher.Run(ctx, time.Now().UTC())
	if err != nil {
		log.Fatalf("Reminder pass failed: %v", err)
	}
	fmt.Printf("Reminder pass complete: %d sent\n", sent)
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "User ID to sync")
	timeout := fs.Duration("timeout", 5*time.Minute, "Timeout for the sync")
	fs.Parse(args)

	if *userID <= 0 {
		log.Fatal("sync requires --user-id")
	}

	cfg := loadConfig()
	db := openDB(cfg)
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)

	subscriptionSvc := subscription.NewService(subscriptionRepo, nil)
	feedClient := finfeed.NewClient(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Feed.PageSize)
	svc := banksync.NewService(userRepo, transactionRepo, subscriptionSvc, feedClient, nil)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := svc.Sync(ctx, *userID)
	if err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	fmt.Printf("Sync complete: fetched %d, imported %d, %d syncs remaining this month\n",
		result.Fetched, result.Imported, result.SyncsRemaining)
}
