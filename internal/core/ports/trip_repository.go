package ports

import (
	"context"
	"time"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// AdvanceTripInput carries a single forward stage change to persist.
type AdvanceTripInput struct {
	ShipmentID string
	From       domain.TripStatus
	To         domain.TripStatus
	At         time.Time
	Location   *domain.Coordinates
	Notes      string
}

// TripRepository persists trip progress records.
type TripRepository interface {
	// Create inserts a new trip. Returns domain.ErrTripExists when a trip for
	// the shipment is already stored.
	Create(ctx context.Context, trip *domain.TripProgress) error
	FindByShipmentID(ctx context.Context, shipmentID string) (*domain.TripProgress, error)
	// Advance sets the new status and its stage timestamp only while the
	// stored status still equals in.From. Returns domain.ErrStatusConflict
	// when it does not.
	Advance(ctx context.Context, in AdvanceTripInput) error
}

// ShipmentStatusReader reads the authoritative shipment status owned by the
// marketplace platform.
type ShipmentStatusReader interface {
	// GetShipmentStatus returns domain.ErrShipmentNotFound when the shipment
	// does not exist.
	GetShipmentStatus(ctx context.Context, shipmentID string) (domain.TripStatus, error)
}

// TripFinder reads a single trip record.
type TripFinder interface {
	FindByShipmentID(ctx context.Context, shipmentID string) (*domain.TripProgress, error)
}

// ShipmentStatusWriter mirrors trip progress into the authoritative store.
type ShipmentStatusWriter interface {
	SetShipmentStatus(ctx context.Context, shipmentID string, status domain.TripStatus, at time.Time) error
}

// TripCache is a read-through cache for trip progress records.
type TripCache interface {
	Get(ctx context.Context, shipmentID string) (*domain.TripProgress, bool)
	Set(ctx context.Context, trip *domain.TripProgress)
	Invalidate(ctx context.Context, shipmentID string) error
}
