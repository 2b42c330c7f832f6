package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

// IncidentService stores incidents and alerts operators about them.
type IncidentService struct {
	repo     ports.IncidentRepository
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewIncidentService(repo ports.IncidentRepository, notifier ports.Notifier, log zerolog.Logger) *IncidentService {
	return &IncidentService{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateIncident persists the incident and notifies operators. Only the
// persistence failure is returned; a failed notification is logged.
func (s *IncidentService) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	if incident.ID == "" {
		incident.ID = uuid.NewString()
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = s.now()
	}
	if incident.DedupeKey == "" {
		incident.DedupeKey = domain.IncidentDedupeKey(incident.Type, incident.ShipmentID)
	}

	if err := s.repo.Insert(ctx, incident); err != nil {
		return &domain.PersistenceError{Op: "insert incident", Err: err}
	}
	metrics.IncidentsCreatedTotal.WithLabelValues(string(incident.Type)).Inc()

	s.log.Warn().
		Str("incident_id", incident.ID).
		Str("type", string(incident.Type)).
		Str("severity", string(incident.Severity)).
		Str("shipment_id", incident.ShipmentID).
		Msg("incident created")

	if s.notifier != nil {
		msg := fmt.Sprintf("[%s] %s - carga %s: %s",
			incident.Severity, incident.Type, incident.ShipmentID, incident.Description)
		if err := s.notifier.NotifyOperators(ctx, msg); err != nil {
			s.log.Warn().Err(err).Str("incident_id", incident.ID).Msg("failed to notify operators")
		}
	}
	return nil
}
