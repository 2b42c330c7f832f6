package ports

import (
	"context"
	"time"
)

// SessionOptions overrides monitoring defaults for one session. Zero values
// keep the configured defaults.
type SessionOptions struct {
	PollInterval        time.Duration
	AcquireTimeout      time.Duration
	FailureThreshold    int
	IncidentCooldown    time.Duration
	SignalLossThreshold time.Duration
	SignalLossGrace     time.Duration
	// DisableWatchdog turns off signal-loss detection for the session.
	DisableWatchdog bool
}

// SessionInfo is a snapshot of a monitoring session.
type SessionInfo struct {
	ID                  string
	ShipmentID          string
	SubjectID           string
	State               string
	StartedAt           time.Time
	ConsecutiveFailures int
	SignalLost          bool
	LastReportAt        time.Time
}

// MonitoringService starts and stops per-shipment monitoring sessions.
type MonitoringService interface {
	Start(ctx context.Context, shipmentID, subjectID string, opts *SessionOptions) (SessionInfo, error)
	// Stop is idempotent: stopping an unknown or stopped session is a no-op.
	Stop(sessionID string)
	Sessions() []SessionInfo
}
