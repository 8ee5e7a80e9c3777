package main

import (
	"net/http"

	"tracksub/internal/domain/banksync"
	"tracksub/internal/domain/notification"
	"tracksub/internal/domain/subscription"
	"tracksub/internal/domain/user"
	httphandlers "tracksub/internal/interfaces/http"
	"tracksub/internal/shared/auth"
	"tracksub/internal/shared/config"
	"tracksub/internal/shared/middleware"
	"tracksub/internal/shared/telemetry"
)

// Dependencies bundles everything the routes need.
type Dependencies struct {
	JWT              *auth.JWT
	UserRepo         user.Repository
	SubscriptionRepo subscription.Repository
	SubscriptionSvc  *subscription.Service
	BankSyncSvc      *banksync.Service
	Dispatcher       *notification.Dispatcher
	Cfg              *config.Config
}

// SetupRoutes configures all HTTP routes and returns the final handler with
// middleware applied.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	authHandler := httphandlers.NewAuthHandler(deps.UserRepo, deps.JWT)
	subscriptionHandler := httphandlers.NewSubscriptionHandler(deps.SubscriptionSvc)
	settingsHandler := httphandlers.NewSettingsHandler(deps.UserRepo)
	bankSyncHandler := httphandlers.NewBankSyncHandler(deps.BankSyncSvc)
	billingHandler := httphandlers.NewBillingHandler(deps.UserRepo, cfg.Billing.WebhookSecret)
	calendarHandler := httphandlers.NewCalendarHandler(deps.UserRepo, deps.SubscriptionRepo, cfg.App.URL)
	notificationHandler := httphandlers.NewNotificationHandler(deps.Dispatcher)

	mux := http.NewServeMux()

	// Health and metrics
	mux.HandleFunc("/health", httphandlers.HandleHealth)
	mux.Handle("/metrics", telemetry.Handler())

	// Public routes
	mux.HandleFunc("/api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("/api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("/api/auth/logout", authHandler.HandleLogout)
	mux.HandleFunc("/api/billing/webhook", billingHandler.HandleWebhook)
	mux.HandleFunc("/calendar/{token}", calendarHandler.HandleFeed)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/users/me", authMiddleware(http.HandlerFunc(billingHandler.HandleMe)))
	mux.Handle("/api/subscriptions", authMiddleware(http.HandlerFunc(subscriptionHandler.HandleSubscriptions)))
	mux.Handle("/api/subscriptions/summary", authMiddleware(http.HandlerFunc(subscriptionHandler.HandleSummary)))
	mux.Handle("/api/subscriptions/{id}", authMiddleware(http.HandlerFunc(subscriptionHandler.HandleSubscriptionByID)))
	mux.Handle("/api/settings/notifications", authMiddleware(http.HandlerFunc(settingsHandler.HandleNotificationSettings)))
	mux.Handle("/api/bank/attach", authMiddleware(http.HandlerFunc(bankSyncHandler.HandleAttach)))
	mux.Handle("/api/bank/sync", authMiddleware(http.HandlerFunc(bankSyncHandler.HandleSync)))
	mux.Handle("/api/bank/candidates", authMiddleware(http.HandlerFunc(bankSyncHandler.HandleCandidates)))
	mux.Handle("/api/bank/import", authMiddleware(http.HandlerFunc(bankSyncHandler.HandleImport)))
	mux.Handle("/api/calendar/token", authMiddleware(http.HandlerFunc(calendarHandler.HandleToken)))
	mux.Handle("/api/notifications/run", authMiddleware(http.HandlerFunc(notificationHandler.HandleRun)))

	// Apply global middleware
	return middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))
}
