package ports

import (
	"context"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// StartTripInput carries the data needed to open a trip on acceptance.
type StartTripInput struct {
	ShipmentID string
	DriverID   string
	ShipperID  string
}

// StartTripResult is returned by StartTrip.
type StartTripResult struct {
	Trip *domain.TripProgress
	// AlreadyExisted is true when a trip for the shipment was already open.
	AlreadyExisted bool
}

// AdvanceResult describes the outcome of an accepted stage change.
type AdvanceResult struct {
	Trip *domain.TripProgress
	// Idempotent is true when the requested stage equals the current one and
	// nothing was written.
	Idempotent bool
}

// TripService is the trip progress controller.
type TripService interface {
	StartTrip(ctx context.Context, in StartTripInput) (*StartTripResult, error)
	GetTrip(ctx context.Context, shipmentID string) (*domain.TripProgress, error)
	Advance(ctx context.Context, shipmentID string, requested domain.TripStatus, evidence domain.Evidence) (*AdvanceResult, error)
}

// TripPublisher hands trip events to downstream subscribers.
type TripPublisher interface {
	Publish(event domain.TripEvent)
}

// TripSubscriber reacts to a trip moving forward.
type TripSubscriber interface {
	OnTripAdvanced(ctx context.Context, event domain.TripEvent) error
}
