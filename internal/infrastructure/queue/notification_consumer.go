package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/infrastructure/email"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

const deliveryTimeout = 15 * time.Second

// Inbox stores in-app notifications for a user.
type Inbox interface {
	Deliver(ctx context.Context, userID, message string, at time.Time) error
}

// EmailSender sends one e-mail to several recipients.
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, text, html string) error
}

// NotificationConsumer delivers queued notifications: user messages go to
// the in-app inbox, operator messages are e-mailed. Failed deliveries are
// rejected so they can be inspected in the rejected list.
type NotificationConsumer struct {
	inbox     Inbox
	mailer    EmailSender
	operators []string
	log       zerolog.Logger
}

// NewNotificationConsumer returns a consumer. A nil mailer or an empty
// operator list disables operator e-mails; those messages are acked and logged.
func NewNotificationConsumer(inbox Inbox, mailer EmailSender, operators []string, log zerolog.Logger) *NotificationConsumer {
	return &NotificationConsumer{inbox: inbox, mailer: mailer, operators: operators, log: log}
}

// Consume implements rmq.Consumer.
func (c *NotificationConsumer) Consume(delivery rmq.Delivery) {
	var msg notification
	if err := json.Unmarshal([]byte(delivery.Payload()), &msg); err != nil {
		c.log.Error().Err(err).Msg("dropping undecodable notification")
		c.settle(delivery, "unknown", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	c.settle(delivery, msg.Kind, c.deliver(ctx, msg))
}

func (c *NotificationConsumer) deliver(ctx context.Context, msg notification) error {
	switch msg.Kind {
	case KindUser:
		return c.inbox.Deliver(ctx, msg.UserID, msg.Message, msg.CreatedAt)
	case KindOperators:
		if c.mailer == nil || len(c.operators) == 0 {
			c.log.Info().Str("message", msg.Message).Msg("operator e-mail disabled, alert logged only")
			return nil
		}
		subject, text, html, err := email.RenderOperatorAlert(email.OperatorAlert{Message: msg.Message, SentAt: msg.CreatedAt})
		if err != nil {
			return err
		}
		return c.mailer.Send(ctx, c.operators, subject, text, html)
	default:
		return fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
}

func (c *NotificationConsumer) settle(delivery rmq.Delivery, kind string, err error) {
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		c.log.Warn().Err(err).Str("kind", kind).Msg("notification delivery failed")
		if rerr := delivery.Reject(); rerr != nil {
			c.log.Error().Err(rerr).Msg("failed to reject notification")
		}
		return
	}
	metrics.NotificationsTotal.WithLabelValues(kind, "delivered").Inc()
	if aerr := delivery.Ack(); aerr != nil {
		c.log.Error().Err(aerr).Msg("failed to ack notification")
	}
}

// StartConsumers opens the consuming side of queue with n consumers.
func StartConsumers(queue rmq.Queue, consumer rmq.Consumer, n int) error {
	if n <= 0 {
		n = 1
	}
	if err := queue.StartConsuming(int64(n*10), time.Second); err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	for i := 0; i < n; i++ {
		if _, err := queue.AddConsumer(fmt.Sprintf("notify-consumer-%d", i), consumer); err != nil {
			return fmt.Errorf("add consumer %d: %w", i, err)
		}
	}
	return nil
}
