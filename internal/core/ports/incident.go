package ports

import (
	"context"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// IncidentRepository stores incident reports.
type IncidentRepository interface {
	Insert(ctx context.Context, incident *domain.Incident) error
}

// IncidentSink accepts structured incident reports and fans them out to
// operators.
type IncidentSink interface {
	CreateIncident(ctx context.Context, incident *domain.Incident) error
}

// Notifier delivers best-effort messages to users and operators.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, message string) error
	NotifyOperators(ctx context.Context, message string) error
}
