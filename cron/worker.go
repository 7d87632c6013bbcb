package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"clinicbook/config"
	"clinicbook/services/notification"
	"clinicbook/services/payment"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt builds the asynq Redis options from AppConfig.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitNotificationWorker runs the async notification worker in background.
func InitNotificationWorker(sender notification.EmailSender) {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeEmailSend, handleEmailTask(sender))

	go func() {
		log.Println("[NotificationWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[NotificationWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[NotificationWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleEmailTask(sender notification.EmailSender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var t notification.EmailTask
		if err := json.Unmarshal(task.Payload(), &t); err != nil {
			log.Printf("[NotificationWorker] Invalid payload: %v", err)
			return err
		}
		return sender.Send(ctx, t.Kind, t.Recipient, t.Data)
	}
}

// StartGuardLoop runs the duplicate guard on a fixed interval until the
// context is cancelled. The scan is idempotent, so overlapping a manual
// admin-triggered run is harmless.
func StartGuardLoop(ctx context.Context, guard payment.Guard, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		logger.Info("duplicate guard background scan disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		logger.Info("duplicate guard scan scheduled", zap.Duration("interval", interval))

		for {
			select {
			case <-ctx.Done():
				logger.Info("duplicate guard loop stopping")
				return
			case <-ticker.C:
				report, err := guard.ScanAndResolve(ctx)
				if err != nil {
					logger.Error("scheduled duplicate scan failed", zap.Error(err))
					continue
				}
				if report.Cancelled > 0 {
					logger.Warn("scheduled duplicate scan cancelled payments",
						zap.Int("cancelled", report.Cancelled))
				}
			}
		}
	}()
}
