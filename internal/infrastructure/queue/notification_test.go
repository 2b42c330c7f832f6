package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog"
)

type stubInbox struct {
	delivered map[string][]string
	err       error
}

func (s *stubInbox) Deliver(_ context.Context, userID, message string, _ time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.delivered == nil {
		s.delivered = make(map[string][]string)
	}
	s.delivered[userID] = append(s.delivered[userID], message)
	return nil
}

type stubMailer struct {
	sent []string
	to   []string
	err  error
}

func (m *stubMailer) Send(_ context.Context, to []string, subject, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.to = to
	m.sent = append(m.sent, subject)
	return nil
}

func TestNotifier_Publishes(t *testing.T) {
	conn := rmq.NewTestConnection()
	q, err := conn.OpenQueue(NotificationsQueue)
	if err != nil {
		t.Fatal(err)
	}
	n := NewNotifier(q)
	n.now = func() time.Time { return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC) }

	if err := n.NotifyUser(context.Background(), "drv-1", "olá"); err != nil {
		t.Fatalf("NotifyUser returned error: %v", err)
	}
	if err := n.NotifyOperators(context.Background(), "alerta"); err != nil {
		t.Fatalf("NotifyOperators returned error: %v", err)
	}

	deliveries := conn.GetDeliveries(NotificationsQueue)
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	var first notification
	if err := json.Unmarshal([]byte(deliveries[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Kind != KindUser || first.UserID != "drv-1" || first.Message != "olá" {
		t.Errorf("unexpected payload %+v", first)
	}
}

func payload(t *testing.T, n notification) string {
	t.Helper()
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestNotificationConsumer_UserGoesToInbox(t *testing.T) {
	inbox := &stubInbox{}
	c := NewNotificationConsumer(inbox, &stubMailer{}, nil, zerolog.Nop())

	d := rmq.NewTestDeliveryString(payload(t, notification{Kind: KindUser, UserID: "u1", Message: "hi"}))
	c.Consume(d)

	if d.State != rmq.Acked {
		t.Fatalf("expected ack, got %v", d.State)
	}
	if got := inbox.delivered["u1"]; len(got) != 1 || got[0] != "hi" {
		t.Errorf("unexpected inbox %v", inbox.delivered)
	}
}

func TestNotificationConsumer_OperatorsAreEmailed(t *testing.T) {
	mailer := &stubMailer{}
	c := NewNotificationConsumer(&stubInbox{}, mailer, []string{"ops@fretenet.com.br"}, zerolog.Nop())

	d := rmq.NewTestDeliveryString(payload(t, notification{Kind: KindOperators, Message: "alerta", CreatedAt: time.Now()}))
	c.Consume(d)

	if d.State != rmq.Acked {
		t.Fatalf("expected ack, got %v", d.State)
	}
	if len(mailer.sent) != 1 || mailer.to[0] != "ops@fretenet.com.br" {
		t.Errorf("expected one e-mail to operators, got %v %v", mailer.sent, mailer.to)
	}
}

func TestNotificationConsumer_OperatorsWithoutMailerAreAcked(t *testing.T) {
	c := NewNotificationConsumer(&stubInbox{}, nil, nil, zerolog.Nop())

	d := rmq.NewTestDeliveryString(payload(t, notification{Kind: KindOperators, Message: "alerta"}))
	c.Consume(d)

	if d.State != rmq.Acked {
		t.Fatalf("expected ack, got %v", d.State)
	}
}

func TestNotificationConsumer_FailuresAreRejected(t *testing.T) {
	cases := map[string]struct {
		consumer *NotificationConsumer
		payload  string
	}{
		"inbox error": {
			consumer: NewNotificationConsumer(&stubInbox{err: errors.New("mongo down")}, nil, nil, zerolog.Nop()),
			payload:  payload(t, notification{Kind: KindUser, UserID: "u1", Message: "hi"}),
		},
		"mail error": {
			consumer: NewNotificationConsumer(&stubInbox{}, &stubMailer{err: errors.New("ses")}, []string{"a@b.c"}, zerolog.Nop()),
			payload:  payload(t, notification{Kind: KindOperators, Message: "x"}),
		},
		"unknown kind": {
			consumer: NewNotificationConsumer(&stubInbox{}, nil, nil, zerolog.Nop()),
			payload:  payload(t, notification{Kind: "sms", Message: "x"}),
		},
		"bad json": {
			consumer: NewNotificationConsumer(&stubInbox{}, nil, nil, zerolog.Nop()),
			payload:  "{",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			d := rmq.NewTestDeliveryString(tc.payload)
			tc.consumer.Consume(d)
			if d.State != rmq.Rejected {
				t.Fatalf("expected reject, got %v", d.State)
			}
		})
	}
}
