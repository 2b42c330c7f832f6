package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

// TripService is the trip progress controller: the single trusted boundary
// that validates and persists stage changes.
type TripService struct {
	repo      ports.TripRepository
	shipments ports.ShipmentStatusWriter
	cache     ports.TripCache
	publisher ports.TripPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewTripService returns a TripService. cache may be nil.
func NewTripService(
	repo ports.TripRepository,
	shipments ports.ShipmentStatusWriter,
	cache ports.TripCache,
	publisher ports.TripPublisher,
	log zerolog.Logger,
) *TripService {
	return &TripService{
		repo:      repo,
		shipments: shipments,
		cache:     cache,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartTrip opens the trip of a freshly accepted shipment. Replaying the call
// for the same shipment returns the stored trip without side effects.
func (s *TripService) StartTrip(ctx context.Context, in ports.StartTripInput) (*ports.StartTripResult, error) {
	now := s.now()
	trip := &domain.TripProgress{
		ShipmentID:      in.ShipmentID,
		DriverID:        in.DriverID,
		ShipperID:       in.ShipperID,
		CurrentStatus:   domain.StatusAccepted,
		StageTimestamps: map[domain.TripStatus]time.Time{domain.StatusAccepted: now},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, trip); err != nil {
		if errors.Is(err, domain.ErrTripExists) {
			existing, findErr := s.repo.FindByShipmentID(ctx, in.ShipmentID)
			if findErr != nil {
				return nil, fmt.Errorf("start trip: %w", findErr)
			}
			s.log.Info().Str("shipment_id", in.ShipmentID).Msg("trip already started")
			return &ports.StartTripResult{Trip: existing, AlreadyExisted: true}, nil
		}
		return nil, &domain.PersistenceError{Op: "create trip", Err: err}
	}

	s.syncShipmentStatus(ctx, in.ShipmentID, domain.StatusAccepted, now)
	s.publisher.Publish(domain.TripEvent{
		ShipmentID: trip.ShipmentID,
		DriverID:   trip.DriverID,
		ShipperID:  trip.ShipperID,
		From:       domain.StatusNew,
		To:         domain.StatusAccepted,
		OccurredAt: now,
	})

	s.log.Info().Str("shipment_id", in.ShipmentID).Str("driver_id", in.DriverID).Msg("trip started")
	return &ports.StartTripResult{Trip: trip}, nil
}

// GetTrip returns the trip of a shipment, served from cache when possible.
func (s *TripService) GetTrip(ctx context.Context, shipmentID string) (*domain.TripProgress, error) {
	if s.cache != nil {
		if trip, ok := s.cache.Get(ctx, shipmentID); ok {
			return trip, nil
		}
	}

	trip, err := s.repo.FindByShipmentID(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, trip)
	}
	return trip, nil
}

// Advance moves a trip to the requested stage. Only the stage directly after
// the current one is accepted; requesting the current stage again is a no-op.
func (s *TripService) Advance(ctx context.Context, shipmentID string, requested domain.TripStatus, evidence domain.Evidence) (*ports.AdvanceResult, error) {
	// Always read from the store: the cache must never decide a transition.
	trip, err := s.repo.FindByShipmentID(ctx, shipmentID)
	if err != nil {
		metrics.TripAdvancesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("advance trip: %w", err)
	}

	idempotent, err := domain.ValidateTransition(trip.CurrentStatus, requested)
	if err != nil {
		metrics.TripAdvancesTotal.WithLabelValues("rejected").Inc()
		s.log.Info().
			Str("shipment_id", shipmentID).
			Str("current", string(trip.CurrentStatus)).
			Str("requested", string(requested)).
			Msg("stage advance rejected")
		return nil, err
	}
	if idempotent {
		metrics.TripAdvancesTotal.WithLabelValues("idempotent").Inc()
		s.log.Debug().Str("shipment_id", shipmentID).Str("status", string(requested)).Msg("idempotent advance")
		return &ports.AdvanceResult{Trip: trip, Idempotent: true}, nil
	}

	now := s.now()
	in := ports.AdvanceTripInput{
		ShipmentID: shipmentID,
		From:       trip.CurrentStatus,
		To:         requested,
		At:         now,
		Location:   evidence.Location,
		Notes:      evidence.Notes,
	}
	if err := s.repo.Advance(ctx, in); err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			metrics.TripAdvancesTotal.WithLabelValues("conflict").Inc()
			return nil, fmt.Errorf("advance trip: %w", err)
		}
		metrics.TripAdvancesTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("shipment_id", shipmentID).Msg("failed to persist stage advance")
		return nil, &domain.PersistenceError{Op: "advance trip", Err: err}
	}

	from := trip.CurrentStatus
	trip.CurrentStatus = requested
	if trip.StageTimestamps == nil {
		trip.StageTimestamps = make(map[domain.TripStatus]time.Time)
	}
	trip.StageTimestamps[requested] = now
	trip.UpdatedAt = now
	if evidence.Location != nil {
		trip.LastLocation = evidence.Location
	}
	if evidence.Notes != "" {
		trip.Notes = evidence.Notes
	}
	if s.cache != nil {
		s.cache.Set(ctx, trip)
	}

	s.syncShipmentStatus(ctx, shipmentID, requested, now)
	s.publisher.Publish(domain.TripEvent{
		ShipmentID: shipmentID,
		DriverID:   trip.DriverID,
		ShipperID:  trip.ShipperID,
		From:       from,
		To:         requested,
		Location:   evidence.Location,
		OccurredAt: now,
	})

	metrics.TripAdvancesTotal.WithLabelValues("advanced").Inc()
	s.log.Info().
		Str("shipment_id", shipmentID).
		Str("from", string(from)).
		Str("to", string(requested)).
		Msg("trip advanced")

	return &ports.AdvanceResult{Trip: trip}, nil
}

// syncShipmentStatus mirrors the stage into the authoritative shipment record
// (non-fatal on failure).
func (s *TripService) syncShipmentStatus(ctx context.Context, shipmentID string, status domain.TripStatus, at time.Time) {
	if s.shipments == nil {
		return
	}
	if err := s.shipments.SetShipmentStatus(ctx, shipmentID, status, at); err != nil {
		s.log.Warn().Err(err).Str("shipment_id", shipmentID).Msg("failed to mirror shipment status")
	}
}
