package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicbook/config"
	"clinicbook/cron"
	"clinicbook/database"
	bookingRepo "clinicbook/database/repository/booking"
	paymentRepo "clinicbook/database/repository/payment"
	pricingRepo "clinicbook/database/repository/pricing"
	webhooklogRepo "clinicbook/database/repository/webhooklog"
	"clinicbook/handlers"
	"clinicbook/routes"
	"clinicbook/services/notification"
	"clinicbook/services/payment"
	"clinicbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.AppConfig.StripeKey

	// Repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	payments := paymentRepo.NewMongoPaymentRepo()
	requests := paymentRepo.NewMongoPaymentRequestRepo()
	logs := webhooklogRepo.NewMongoWebhookLogRepo()
	pricing := pricingRepo.NewMongoPricingRepo()

	ensureIndexes(logger, payments, requests, pricing)

	// Notification dispatch goes through the Redis-backed queue; the worker
	// drains it in-process.
	dispatcher := notification.NewAsynqDispatcher(cron.RedisOpt(), logger)
	cron.InitNotificationWorker(&notification.LogEmailSender{Logger: logger})

	// Services.
	factory := &payment.DefaultRequestFactory{
		Bookings:              bookings,
		Requests:              requests,
		Pricing:               pricing,
		Notifier:              dispatcher,
		Logger:                logger,
		DefaultDepositPercent: config.AppConfig.DefaultDepositPercent,
		DueIn:                 time.Duration(config.AppConfig.PaymentDueDays) * 24 * time.Hour,
		Currency:              config.AppConfig.DefaultCurrency,
	}
	authenticator := payment.NewWebhookAuthenticator(payment.AuthConfig{
		Env:                 config.AppConfig.Env,
		WebhookSecret:       config.AppConfig.WebhookSecret,
		InternalTokenSecret: config.AppConfig.InternalTokenSecret,
	}, logger)
	matcher := &payment.DefaultPaymentMatcher{
		Payments: payments,
		Requests: requests,
		Logger:   logger,
	}
	reconciler := &payment.DefaultReconciler{
		Payments: payments,
		Requests: requests,
		Bookings: bookings,
		Logs:     logs,
		Notifier: dispatcher,
		Logger:   logger,
	}
	guard := &payment.DuplicateGuard{
		Payments: payments,
		Logger:   logger,
	}

	rootCtx, stopBackground := context.WithCancel(context.Background())
	cron.StartGuardLoop(rootCtx, guard,
		time.Duration(config.AppConfig.GuardScanIntervalMin)*time.Minute, logger)

	// Handlers and routes.
	handlerBundle := &routes.HandlerBundle{
		Webhook:        handlers.NewWebhookHandler(authenticator, matcher, reconciler, logger),
		PaymentRequest: handlers.NewPaymentRequestHandler(factory, requests, logger),
		Admin:          handlers.NewAdminHandler(guard, logs, logger),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	stopBackground()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info("Server exited")
}

type indexer interface {
	EnsureIndexes() error
}

func ensureIndexes(logger *zap.Logger, repos ...indexer) {
	for _, repo := range repos {
		if err := repo.EnsureIndexes(); err != nil {
			logger.Sugar().Fatalf("failed to create indexes: %v", err)
		}
	}
}
