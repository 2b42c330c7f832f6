package monitor

import (
	"context"
	"errors"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

// tripStatusFallback answers from the trip record when the shipment record
// is missing. The trip is written before the shipment status is mirrored, so
// a failed mirror write must not read as a vanished shipment.
type tripStatusFallback struct {
	shipments ports.ShipmentStatusReader
	trips     ports.TripFinder
}

// WithTripFallback wraps shipments so that a missing shipment is looked up in
// trips. It returns shipments unchanged when trips is nil.
func WithTripFallback(shipments ports.ShipmentStatusReader, trips ports.TripFinder) ports.ShipmentStatusReader {
	if trips == nil {
		return shipments
	}
	return &tripStatusFallback{shipments: shipments, trips: trips}
}

func (r *tripStatusFallback) GetShipmentStatus(ctx context.Context, shipmentID string) (domain.TripStatus, error) {
	status, err := r.shipments.GetShipmentStatus(ctx, shipmentID)
	if !errors.Is(err, domain.ErrShipmentNotFound) {
		return status, err
	}

	trip, findErr := r.trips.FindByShipmentID(ctx, shipmentID)
	switch {
	case errors.Is(findErr, domain.ErrTripNotFound):
		return "", err
	case findErr != nil:
		return "", findErr
	}
	return trip.CurrentStatus, nil
}
