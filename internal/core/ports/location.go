package ports

import (
	"context"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// LocationRepository is the primary location store.
type LocationRepository interface {
	// UpsertCurrent overwrites the subject's current location.
	UpsertCurrent(ctx context.Context, subjectID string, sample domain.LocationSample) error
	// AppendHistory adds a point to the shipment's location trail.
	AppendHistory(ctx context.Context, subjectID, shipmentID string, sample domain.LocationSample) error
}

// LegacyLocationWriter keeps the fallback location record read by older map
// clients up to date.
type LegacyLocationWriter interface {
	WriteLegacy(ctx context.Context, subjectID string, sample domain.LocationSample) error
}

// PositionSource acquires the most recent position of a subject's device.
type PositionSource interface {
	Acquire(ctx context.Context, subjectID string) (domain.LocationSample, error)
}

// FixStore receives raw fixes pushed by the driver app.
type FixStore interface {
	StoreFix(ctx context.Context, subjectID string, sample domain.LocationSample) error
}

// FleetLocationUpdater updates the location of affiliated-fleet drivers.
// Returns domain.ErrNotAffiliated when the subject is not an affiliated driver.
type FleetLocationUpdater interface {
	UpdateFleetLocation(ctx context.Context, subjectID string, sample domain.LocationSample) error
}

// RejectReason explains why a location report was not accepted.
type RejectReason string

const (
	RejectNone        RejectReason = ""
	RejectThrottled   RejectReason = "throttled"
	RejectInFlight    RejectReason = "in_flight"
	RejectInvalid     RejectReason = "invalid_sample"
	RejectWriteFailed RejectReason = "write_failed"
)

// ReportResult is the outcome of a location report. Fatal holds the error
// that made the call fail (invalid sample or failed current-location write);
// Recovered holds secondary write failures that were logged and did not
// affect Accepted.
type ReportResult struct {
	Accepted  bool
	Reason    RejectReason
	Fatal     error
	Recovered []error
}

// LocationReporter is the throttled, single-flight location writer.
type LocationReporter interface {
	Report(ctx context.Context, subjectID string, sample domain.LocationSample, shipmentID string) ReportResult
}

// LocationListener is told about every accepted location report.
type LocationListener interface {
	LocationReported(subjectID string, sample domain.LocationSample)
}
