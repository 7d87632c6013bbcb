package notification

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeEmailSend is the asynq task type for outbound notification emails.
const TypeEmailSend = "email:send"

// EmailTask is the asynq payload for a queued notification.
type EmailTask struct {
	Kind      Kind              `json:"kind"`
	Recipient string            `json:"recipient"`
	Data      map[string]string `json:"data"`
}

// AsynqDispatcher enqueues notifications onto the Redis-backed task queue so
// delivery never blocks the webhook path.
type AsynqDispatcher struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewAsynqDispatcher constructs a dispatcher backed by the given Redis options.
func NewAsynqDispatcher(redisOpt asynq.RedisClientOpt, logger *zap.Logger) *AsynqDispatcher {
	return &AsynqDispatcher{
		client: asynq.NewClient(redisOpt),
		logger: logger,
	}
}

// Send enqueues the notification. Enqueue failures are logged and reported as
// false; the queue handles delivery retries, not the caller.
func (d *AsynqDispatcher) Send(ctx context.Context, kind Kind, recipient string, data map[string]string) bool {
	payload, err := json.Marshal(EmailTask{Kind: kind, Recipient: recipient, Data: data})
	if err != nil {
		d.logger.Error("failed to marshal notification task", zap.Error(err))
		return false
	}

	task := asynq.NewTask(TypeEmailSend, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		d.logger.Error("failed to enqueue notification",
			zap.String("kind", string(kind)),
			zap.String("recipient", recipient),
			zap.Error(err))
		return false
	}
	return true
}

// LogEmailSender is the default EmailSender: it only logs the delivery.
// Real SMTP/provider delivery plugs in behind the same interface.
type LogEmailSender struct {
	Logger *zap.Logger
}

func (s *LogEmailSender) Send(ctx context.Context, kind Kind, recipient string, data map[string]string) error {
	s.Logger.Info("sending notification email",
		zap.String("kind", string(kind)),
		zap.String("recipient", recipient),
		zap.Any("data", data))
	return nil
}
