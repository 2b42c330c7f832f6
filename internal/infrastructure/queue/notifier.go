package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
)

// NotificationsQueue is the rmq queue carrying user and operator messages.
const NotificationsQueue = "notifications"

// Notification kinds.
const (
	KindUser      = "user"
	KindOperators = "operators"
)

// notification is the queue payload.
type notification struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier publishes notifications to the rmq queue. Delivery happens in
// NotificationConsumer so a slow mail provider never blocks the caller.
type Notifier struct {
	queue rmq.Queue
	now   func() time.Time
}

func NewNotifier(queue rmq.Queue) *Notifier {
	return &Notifier{queue: queue, now: time.Now}
}

func (n *Notifier) NotifyUser(_ context.Context, userID, message string) error {
	return n.publish(notification{Kind: KindUser, UserID: userID, Message: message})
}

func (n *Notifier) NotifyOperators(_ context.Context, message string) error {
	return n.publish(notification{Kind: KindOperators, Message: message})
}

func (n *Notifier) publish(msg notification) error {
	msg.CreatedAt = n.now().UTC()
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.queue.PublishBytes(payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
