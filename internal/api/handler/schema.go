package handler

import (
	"time"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type coordinatesRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// --- Trips ---

type startTripRequest struct {
	ShipmentID string `json:"shipment_id" validate:"required"`
	DriverID   string `json:"driver_id"   validate:"required"`
	ShipperID  string `json:"shipper_id"`
}

type advanceTripRequest struct {
	Status   string              `json:"status"   validate:"required"`
	Location *coordinatesRequest `json:"location"`
	Notes    string              `json:"notes"    validate:"max=500"`
}

type stageResponse struct {
	Status    domain.TripStatus `json:"status"`
	Label     string            `json:"label"`
	ReachedAt *time.Time        `json:"reached_at,omitempty"`
}

type tripResponse struct {
	ShipmentID    string              `json:"shipment_id"`
	DriverID      string              `json:"driver_id"`
	ShipperID     string              `json:"shipper_id,omitempty"`
	CurrentStatus domain.TripStatus   `json:"current_status"`
	StatusLabel   string              `json:"status_label"`
	Stages        []stageResponse     `json:"stages"`
	LastLocation  *domain.Coordinates `json:"last_location,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type advanceTripResponse struct {
	Trip       tripResponse `json:"trip"`
	Idempotent bool         `json:"idempotent"`
}

// --- Locations ---

type locationReportRequest struct {
	Lat        float64    `json:"lat"      validate:"gte=-90,lte=90"`
	Lng        float64    `json:"lng"      validate:"gte=-180,lte=180"`
	Accuracy   *float64   `json:"accuracy" validate:"omitempty,gte=0"`
	Heading    *float64   `json:"heading"  validate:"omitempty,gte=0,lte=360"`
	Speed      *float64   `json:"speed"    validate:"omitempty,gte=0"`
	CapturedAt *time.Time `json:"captured_at"`
	ShipmentID string     `json:"shipment_id"`
}

type locationReportResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Warnings int    `json:"warnings,omitempty"`
}

// --- Monitoring ---

type startMonitoringRequest struct {
	ShipmentID                 string `json:"shipment_id"                   validate:"required"`
	SubjectID                  string `json:"subject_id"                    validate:"required"`
	PollIntervalSeconds        int    `json:"poll_interval_seconds"         validate:"omitempty,gte=5"`
	FailureThreshold           int    `json:"failure_threshold"             validate:"omitempty,gte=1"`
	SignalLossThresholdSeconds int    `json:"signal_loss_threshold_seconds" validate:"omitempty,gte=10"`
	SignalLossGraceSeconds     int    `json:"signal_loss_grace_seconds"     validate:"omitempty,gte=0"`
	DisableWatchdog            bool   `json:"disable_watchdog"`
}

type sessionResponse struct {
	ID                  string     `json:"id"`
	ShipmentID          string     `json:"shipment_id"`
	SubjectID           string     `json:"subject_id"`
	State               string     `json:"state"`
	StartedAt           time.Time  `json:"started_at"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	SignalLost          bool       `json:"signal_lost"`
	LastReportAt        *time.Time `json:"last_report_at,omitempty"`
}

type listSessionsResponse struct {
	Data []sessionResponse `json:"data"`
}
