package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

type watchdogPhase int

const (
	phaseWatching watchdogPhase = iota
	phaseWarned
	phaseEscalated
)

// watchdog detects the absence of location reports for a session's subject.
// A deadline timer is pushed back by every accepted report; when it fires the
// subject is warned and, if nothing arrives within the grace period, a
// signal-lost incident is filed. One incident per loss episode.
type watchdog struct {
	shipmentID string
	subjectID  string
	threshold  time.Duration
	grace      time.Duration

	notifier  ports.Notifier
	incidents ports.IncidentSink
	log       zerolog.Logger
	now       func() time.Time

	resets chan struct{}

	mu         sync.Mutex
	phase      watchdogPhase
	lastSample *domain.LocationSample
	lastSeenAt time.Time
}

func newWatchdog(shipmentID, subjectID string, threshold, grace time.Duration, notifier ports.Notifier,
	incidents ports.IncidentSink, log zerolog.Logger, now func() time.Time) *watchdog {
	return &watchdog{
		shipmentID: shipmentID,
		subjectID:  subjectID,
		threshold:  threshold,
		grace:      grace,
		notifier:   notifier,
		incidents:  incidents,
		log:        log,
		now:        now,
		resets:     make(chan struct{}, 1),
		lastSeenAt: now(),
	}
}

// reset records the sample and pushes the deadline back. It never blocks.
func (w *watchdog) reset(sample domain.LocationSample) {
	w.mu.Lock()
	w.lastSample = &sample
	w.lastSeenAt = w.now()
	w.mu.Unlock()

	select {
	case w.resets <- struct{}{}:
	default:
	}
}

func (w *watchdog) run(ctx context.Context) {
	timer := time.NewTimer(w.threshold)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.resets:
			w.onReset(ctx)
			timer.Reset(w.threshold)
		case <-timer.C:
			if next, ok := w.onExpire(ctx); ok {
				timer.Reset(next)
			}
		}
	}
}

// onReset clears a signal-loss episode, telling the subject the signal is
// back when a warning had been sent.
func (w *watchdog) onReset(ctx context.Context) {
	w.mu.Lock()
	wasLost := w.phase != phaseWatching
	w.phase = phaseWatching
	w.mu.Unlock()

	if !wasLost {
		return
	}
	w.log.Info().Msg("signal recovered")
	msg := fmt.Sprintf("Sinal de GPS restabelecido para a carga %s.", w.shipmentID)
	if err := w.notifier.NotifyUser(ctx, w.subjectID, msg); err != nil {
		w.log.Warn().Err(err).Msg("failed to send signal recovery notice")
	}
}

// onExpire advances the episode when the timer fires. It returns the next
// deadline and whether the timer should be armed again.
func (w *watchdog) onExpire(ctx context.Context) (time.Duration, bool) {
	w.mu.Lock()
	phase := w.phase
	switch phase {
	case phaseWatching:
		w.phase = phaseWarned
	case phaseWarned:
		w.phase = phaseEscalated
	}
	var last *domain.LocationSample
	if w.lastSample != nil {
		s := *w.lastSample
		last = &s
	}
	lastSeenAt := w.lastSeenAt
	w.mu.Unlock()

	switch phase {
	case phaseWatching:
		w.warn(ctx)
		return w.grace, true
	case phaseWarned:
		w.fileIncident(ctx, last, lastSeenAt)
	}
	return 0, false
}

func (w *watchdog) warn(ctx context.Context) {
	metrics.SignalLossWarningsTotal.Inc()
	w.log.Warn().Dur("grace", w.grace).Msg("signal lost, warning subject")

	msg := fmt.Sprintf("Sinal de GPS perdido para a carga %s. Reative a localização em até %s para evitar a abertura de uma ocorrência.",
		w.shipmentID, w.grace)
	if err := w.notifier.NotifyUser(ctx, w.subjectID, msg); err != nil {
		w.log.Warn().Err(err).Msg("failed to send signal loss warning")
	}
	opMsg := fmt.Sprintf("[aviso] sinal perdido - carga %s, motorista %s. Ocorrência em %s sem recuperação.",
		w.shipmentID, w.subjectID, w.grace)
	if err := w.notifier.NotifyOperators(ctx, opMsg); err != nil {
		w.log.Warn().Err(err).Msg("failed to send signal loss warning to operators")
	}
}

func (w *watchdog) fileIncident(ctx context.Context, last *domain.LocationSample, lastSeenAt time.Time) {
	elapsed := w.now().Sub(lastSeenAt)
	evidence := map[string]any{
		"elapsed_seconds": int64(elapsed.Seconds()),
		"last_seen_at":    lastSeenAt.UTC(),
	}
	if last != nil {
		evidence["last_lat"] = last.Lat
		evidence["last_lng"] = last.Lng
	}

	incident := &domain.Incident{
		Type:        domain.IncidentSignalLost,
		Severity:    domain.SeverityHigh,
		ShipmentID:  w.shipmentID,
		SubjectID:   w.subjectID,
		Description: fmt.Sprintf("Sem atualização de localização há %s", elapsed.Truncate(time.Second)),
		Evidence:    evidence,
	}
	if err := w.incidents.CreateIncident(ctx, incident); err != nil {
		w.log.Error().Err(err).Msg("failed to create signal lost incident")
	}
}

func (w *watchdog) signalLost() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase != phaseWatching
}

func (w *watchdog) lastReportAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastSample == nil {
		return time.Time{}
	}
	return w.lastSeenAt
}
