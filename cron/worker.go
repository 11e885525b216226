package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookline/config"
	bookingRepo "bookline/database/repository/booking"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/models"
	"bookline/services/conversation"
	"bookline/services/whatsapp"
	"bookline/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// TypeReminderScan finds bookings starting in roughly a day and
	// reminds their customers.
	TypeReminderScan = "booking:reminder_scan"
	// TypeConfirmationScan finds bookings two days out and asks the
	// customer to confirm, cancel or reschedule.
	TypeConfirmationScan = "booking:confirmation_scan"
)

// ScanDeps carries everything the scan handlers need.
type ScanDeps struct {
	Bookings bookingRepo.BookingRepository
	Tenants  tenantRepo.TenantRepository
	Memory   conversation.MemoryStore
	WhatsApp *whatsapp.Client
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}
}

// NewTaskClient returns the enqueue side, used by the manual trigger
// endpoints.
func NewTaskClient() *asynq.Client {
	return asynq.NewClient(redisOpts())
}

// InitScheduler registers the periodic scans: reminders hourly,
// confirmation prompts every six hours.
func InitScheduler() {
	scheduler := asynq.NewScheduler(redisOpts(), nil)

	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeReminderScan, nil)); err != nil {
		log.Fatalf("[Scheduler] failed to register reminder scan: %v", err)
	}
	if _, err := scheduler.Register("@every 6h", asynq.NewTask(TypeConfirmationScan, nil)); err != nil {
		log.Fatalf("[Scheduler] failed to register confirmation scan: %v", err)
	}

	go func() {
		log.Println("[Scheduler] 🚀 Starting periodic scans...")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[Scheduler] ❗ scheduler stopped: %v", err)
		}
	}()
}

// InitWorker runs the async worker in background.
func InitWorker(deps ScanDeps) {
	srv := asynq.NewServer(redisOpts(), asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderScan, handleReminderScan(deps))
	mux.HandleFunc(TypeConfirmationScan, handleConfirmationScan(deps))

	go func() {
		log.Println("[ReminderWorker] 🚀 Starting async worker...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[ReminderWorker] ❗ worker stopped: %v", err)
		}
	}()
}

// handleReminderScan messages customers whose booking starts in 24h,
// give or take the hourly scan interval.
func handleReminderScan(deps ScanDeps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		now := time.Now().UTC()
		return scanAndNotify(ctx, deps, "reminded", now.Add(23*time.Hour), now.Add(25*time.Hour),
			func(tenant *models.TenantConfig, b *models.Booking) string {
				return fmt.Sprintf("Reminder from %s: your %s is tomorrow at %s. See you then!",
					tenant.BusinessName, bookingNoun(b), b.StartTime.In(tenant.Location()).Format("15:04"))
			})
	}
}

// handleConfirmationScan asks customers with a booking two days out to
// confirm attendance.
func handleConfirmationScan(deps ScanDeps) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		now := time.Now().UTC()
		return scanAndNotify(ctx, deps, "confirm_asked", now.Add(46*time.Hour), now.Add(50*time.Hour),
			func(tenant *models.TenantConfig, b *models.Booking) string {
				return fmt.Sprintf("Hello from %s! Your %s is on %s. Reply yes to confirm, no to cancel, or reschedule to pick another time.",
					tenant.BusinessName, bookingNoun(b), b.StartTime.In(tenant.Location()).Format("Monday, 2 January at 15:04"))
			})
	}
}

// scanAndNotify walks the bookings in [from, to) and sends each customer
// one message. A Redis guard key keeps overlapping scan windows from
// double-messaging the same booking.
func scanAndNotify(ctx context.Context, deps ScanDeps, guard string, from, to time.Time,
	text func(*models.TenantConfig, *models.Booking) string) error {
	logger := utils.GetLogger()

	bookings, err := deps.Bookings.ListConfirmedInWindow(from, to)
	if err != nil {
		return err
	}

	cache := utils.GetCacheClient()
	for i := range bookings {
		b := &bookings[i]

		first, err := cache.SetNX(ctx, fmt.Sprintf("%s:%s", guard, b.ID), 1, 72*time.Hour).Result()
		if err != nil || !first {
			continue
		}

		tenant, err := deps.Tenants.GetByID(b.TenantID)
		if err != nil {
			logger.Warn("scan: tenant lookup failed", zap.String("tenant", b.TenantID), zap.Error(err))
			continue
		}

		body := text(tenant, b)
		messageID, err := deps.WhatsApp.SendText(ctx, tenant.WhatsApp, b.CustomerRef, body)
		if err != nil {
			logger.Warn("scan: send failed",
				zap.String("booking", b.ID),
				zap.String("customer", b.CustomerRef),
				zap.Error(err))
			// Drop the guard so the next scan retries this booking.
			cache.Del(ctx, fmt.Sprintf("%s:%s", guard, b.ID))
			continue
		}
		deps.Memory.RememberSent(ctx, tenant.ID, messageID)
		deps.Memory.AppendMessage(ctx, tenant.ID, b.CustomerRef, models.Message{Role: "assistant", Content: body})
	}
	return nil
}

func bookingNoun(b *models.Booking) string {
	if b.Label != "" {
		return b.Label + " booking"
	}
	return "booking"
}
