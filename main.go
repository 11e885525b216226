package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookline/config"
	"bookline/cron"
	"bookline/database"
	bookingRepo "bookline/database/repository/booking"
	customerRepo "bookline/database/repository/customer"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/handlers"
	"bookline/middleware"
	"bookline/routes"
	"bookline/services/booking"
	"bookline/services/calendar"
	"bookline/services/catalog"
	"bookline/services/conversation"
	"bookline/services/intelligence"
	"bookline/services/media"
	"bookline/services/notification"
	"bookline/services/processor"
	"bookline/services/whatsapp"
	"bookline/utils"

	"github.com/gin-gonic/gin"
)

// messagesPerMinute is the per-customer budget for inbound messages.
const messagesPerMinute = 10

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitConversationStore()
	utils.InitCache()

	ctx := context.Background()

	// Repositories.
	tenants := tenantRepo.NewMongoTenantRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	customers := customerRepo.NewMongoCustomerRepo()

	if active, err := tenants.ListActive(); err != nil {
		logger.Sugar().Warnf("main: tenant preload failed: %v", err)
	} else if len(active) == 0 {
		logger.Sugar().Warn("main: no active tenants configured, webhooks will be ignored")
	} else {
		logger.Sugar().Infof("main: %d active tenant(s) configured", len(active))
	}

	// External ports.
	calendarSvc, err := calendar.NewGoogleCalendarService(ctx)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize calendar service: %v", err)
	}
	transcriber, err := media.NewSpeechTranscriber(ctx)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize speech client: %v", err)
	}
	var notifier notification.Service = notification.NoopService{}
	if config.AppConfig.FirebaseCredentialsPath != "" {
		fcm, err := notification.NewFCMService(ctx)
		if err != nil {
			logger.Sugar().Warnf("main: firebase unavailable, escalation alerts disabled: %v", err)
		} else {
			notifier = fcm
		}
	}
	waClient := whatsapp.NewClient()

	// Conversation state.
	ownership := conversation.NewRedisOwnershipStore(utils.GetConversationClient())
	memory := conversation.NewRedisMemoryStore(utils.GetConversationClient())
	locks := conversation.NewKeyMutex()

	// Core services.
	bookingSvc := booking.NewDefaultBookingService(calendarSvc, bookings)
	catalogSvc := catalog.NewCachedPDFService(utils.GetCacheClient())
	executor := &intelligence.ToolExecutor{
		Booking:   bookingSvc,
		Ownership: ownership,
		Customers: customers,
		Notifier:  notifier,
		Catalog:   catalogSvc,
	}
	llm, err := intelligence.NewGeminiService(ctx, executor)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize gemini: %v", err)
	}

	proc := &processor.Processor{
		Tenants:      tenants,
		Customers:    customers,
		Memory:       memory,
		Ownership:    ownership,
		WhatsApp:     waClient,
		Intelligence: llm,
		Transcriber:  transcriber,
		Limiter:      middleware.NewLimiterStore(messagesPerMinute),
		Locks:        locks,
		Queue:        conversation.NewKeyQueue(),
	}

	// Background scans.
	cron.InitWorker(cron.ScanDeps{
		Bookings: bookings,
		Tenants:  tenants,
		Memory:   memory,
		WhatsApp: waClient,
	})
	cron.InitScheduler()
	tasks := cron.NewTaskClient()
	defer tasks.Close()

	// HTTP surface.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(routes.CORSMiddleware())

	routes.RegisterHealthRoute(router)
	routes.RegisterWebhookRoutes(router, handlers.NewWebhookHandler(proc))
	routes.RegisterOperatorRoutes(router, handlers.NewOperatorHandler(tenants, ownership, memory, waClient, notifier, locks))
	routes.RegisterAdminRoutes(router, handlers.NewAdminHandler(tenants, catalogSvc, memory))
	routes.RegisterSchedulerRoutes(router, handlers.NewSchedulerHandler(tasks))

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
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
