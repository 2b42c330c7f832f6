package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

// healthMonitor polls the position source for one session and escalates a
// streak of acquisition failures to an incident once the shipment is
// confirmed active.
type healthMonitor struct {
	shipmentID string
	subjectID  string
	opts       ports.SessionOptions

	source    ports.PositionSource
	reporter  ports.LocationReporter
	fleet     ports.FleetLocationUpdater
	shipments ports.ShipmentStatusReader
	incidents ports.IncidentSink
	log       zerolog.Logger
	now       func() time.Time

	mu             sync.Mutex
	failures       int
	lastErr        error
	lastIncidentAt map[domain.IncidentType]time.Time
}

// run ticks until ctx is cancelled. Ticks are handled inline so they never
// overlap.
func (h *healthMonitor) run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

func (h *healthMonitor) tick(ctx context.Context) {
	acqCtx, cancel := context.WithTimeout(ctx, h.opts.AcquireTimeout)
	sample, err := h.source.Acquire(acqCtx, h.subjectID)
	cancel()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		h.recordFailure(ctx, err)
		return
	}

	h.mu.Lock()
	h.failures = 0
	h.lastErr = nil
	h.mu.Unlock()

	res := h.reporter.Report(ctx, h.subjectID, sample, h.shipmentID)
	if !res.Accepted {
		h.log.Debug().
			Str("reason", string(res.Reason)).
			AnErr("cause", res.Fatal).
			Msg("polled location not recorded")
	}

	if h.fleet == nil {
		return
	}
	if err := h.fleet.UpdateFleetLocation(ctx, h.subjectID, sample); err != nil {
		if errors.Is(err, domain.ErrNotAffiliated) {
			h.log.Debug().Msg("subject is not an affiliated driver")
			return
		}
		h.log.Warn().Err(err).Msg("failed to update fleet location")
	}
}

func (h *healthMonitor) recordFailure(ctx context.Context, err error) {
	metrics.AcquisitionFailuresTotal.Inc()

	h.mu.Lock()
	h.failures++
	h.lastErr = err
	failures := h.failures
	h.mu.Unlock()

	h.log.Debug().Err(err).Int("failures", failures).Msg("position acquisition failed")

	if failures >= h.opts.FailureThreshold {
		h.escalate(ctx, failures, err)
	}
}

// escalate runs the cool-down check, then the liveness check, and only then
// files the incident. The cool-down check comes first so a suppressed repeat
// costs no store read.
func (h *healthMonitor) escalate(ctx context.Context, failures int, lastErr error) {
	const kind = domain.IncidentGPSAcquisitionFailure

	h.mu.Lock()
	last, seen := h.lastIncidentAt[kind]
	h.mu.Unlock()
	if seen && h.now().Sub(last) < h.opts.IncidentCooldown {
		metrics.IncidentsSuppressedTotal.WithLabelValues("cooldown").Inc()
		h.log.Debug().Time("last_incident_at", last).Msg("escalation suppressed by cool-down")
		return
	}

	status, err := h.shipments.GetShipmentStatus(ctx, h.shipmentID)
	switch {
	case err != nil:
		metrics.IncidentsSuppressedTotal.WithLabelValues("liveness_error").Inc()
		if errors.Is(err, domain.ErrShipmentNotFound) {
			h.log.Info().Msg("shipment not found, escalation suppressed")
		} else {
			h.log.Warn().Err(err).Msg("liveness check failed, escalation suppressed")
		}
		h.resetFailures()
		return
	case !status.IsActive():
		metrics.IncidentsSuppressedTotal.WithLabelValues("inactive").Inc()
		h.log.Info().Str("status", string(status)).Msg("shipment no longer active, escalation suppressed")
		h.resetFailures()
		return
	}

	incident := &domain.Incident{
		Type:       kind,
		Severity:   domain.SeverityCritical,
		ShipmentID: h.shipmentID,
		SubjectID:  h.subjectID,
		Description: fmt.Sprintf("GPS do motorista %s não respondeu em %d tentativas consecutivas",
			h.subjectID, failures),
		Evidence: map[string]any{
			"failure_count": failures,
			"last_error":    lastErr.Error(),
			"subject_id":    h.subjectID,
		},
	}
	if err := h.incidents.CreateIncident(ctx, incident); err != nil {
		h.log.Error().Err(err).Msg("failed to create gps acquisition incident")
		return
	}

	h.mu.Lock()
	h.lastIncidentAt[kind] = h.now()
	h.mu.Unlock()
}

func (h *healthMonitor) resetFailures() {
	h.mu.Lock()
	h.failures = 0
	h.lastErr = nil
	h.mu.Unlock()
}

func (h *healthMonitor) consecutiveFailures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures
}
