// Package monitor runs the per-shipment monitoring sessions: a GPS health loop
// that polls the position source and a signal-loss watchdog that waits for
// location reports.
package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

const (
	StateIdle    = "idle"
	StateActive  = "active"
	StateStopped = "stopped"
)

var (
	ErrManagerClosed  = errors.New("monitoring manager is shut down")
	ErrMissingSubject = errors.New("shipment and subject are required")
)

// DefaultSessionOptions returns the built-in monitoring tunables.
func DefaultSessionOptions() ports.SessionOptions {
	return ports.SessionOptions{
		PollInterval:        60 * time.Second,
		AcquireTimeout:      10 * time.Second,
		FailureThreshold:    3,
		IncidentCooldown:    2 * time.Hour,
		SignalLossThreshold: 90 * time.Second,
		SignalLossGrace:     60 * time.Second,
	}
}

// mergeOptions fills the zero fields of o from base.
func mergeOptions(base ports.SessionOptions, o *ports.SessionOptions) ports.SessionOptions {
	if o == nil {
		return base
	}
	out := base
	if o.PollInterval > 0 {
		out.PollInterval = o.PollInterval
	}
	if o.AcquireTimeout > 0 {
		out.AcquireTimeout = o.AcquireTimeout
	}
	if o.FailureThreshold > 0 {
		out.FailureThreshold = o.FailureThreshold
	}
	if o.IncidentCooldown > 0 {
		out.IncidentCooldown = o.IncidentCooldown
	}
	if o.SignalLossThreshold > 0 {
		out.SignalLossThreshold = o.SignalLossThreshold
	}
	if o.SignalLossGrace > 0 {
		out.SignalLossGrace = o.SignalLossGrace
	}
	out.DisableWatchdog = base.DisableWatchdog || o.DisableWatchdog
	return out
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Source    ports.PositionSource
	Reporter  ports.LocationReporter
	Fleet     ports.FleetLocationUpdater
	Shipments ports.ShipmentStatusReader
	// Trips, when set, answers liveness checks for shipments whose record
	// is missing.
	Trips     ports.TripFinder
	Incidents ports.IncidentSink
	Notifier  ports.Notifier
}

type session struct {
	id         string
	shipmentID string
	subjectID  string
	startedAt  time.Time
	state      string

	health   *healthMonitor
	watchdog *watchdog

	cancel context.CancelFunc
	wg     conc.WaitGroup
}

func (s *session) info() ports.SessionInfo {
	info := ports.SessionInfo{
		ID:                  s.id,
		ShipmentID:          s.shipmentID,
		SubjectID:           s.subjectID,
		State:               s.state,
		StartedAt:           s.startedAt,
		ConsecutiveFailures: s.health.consecutiveFailures(),
	}
	if s.watchdog != nil {
		info.SignalLost = s.watchdog.signalLost()
		info.LastReportAt = s.watchdog.lastReportAt()
	}
	return info
}

// Manager owns the monitoring sessions. At most one session runs per
// shipment. Sessions run on a context owned by the manager so they outlive
// the request that started them.
type Manager struct {
	deps     Deps
	defaults ports.SessionOptions
	log      zerolog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	sessions   map[string]*session
	byShipment map[string]*session
}

// NewManager returns a Manager. Zero fields in defaults fall back to
// DefaultSessionOptions.
func NewManager(deps Deps, defaults ports.SessionOptions, log zerolog.Logger) *Manager {
	deps.Shipments = WithTripFallback(deps.Shipments, deps.Trips)
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:       deps,
		defaults:   mergeOptions(DefaultSessionOptions(), &defaults),
		log:        log.With().Str("component", "monitor").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
		ctx:        ctx,
		cancel:     cancel,
		sessions:   make(map[string]*session),
		byShipment: make(map[string]*session),
	}
}

// Start begins monitoring the shipment. If a session already runs for the
// shipment it is returned unchanged.
func (m *Manager) Start(_ context.Context, shipmentID, subjectID string, opts *ports.SessionOptions) (ports.SessionInfo, error) {
	if shipmentID == "" || subjectID == "" {
		return ports.SessionInfo{}, ErrMissingSubject
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return ports.SessionInfo{}, ErrManagerClosed
	}
	if existing, ok := m.byShipment[shipmentID]; ok {
		return existing.info(), nil
	}

	s := m.newSession(shipmentID, subjectID, mergeOptions(m.defaults, opts))
	m.sessions[s.id] = s
	m.byShipment[shipmentID] = s

	ctx, cancel := context.WithCancel(m.ctx)
	s.cancel = cancel
	s.wg.Go(func() { s.health.run(ctx) })
	if s.watchdog != nil {
		s.wg.Go(func() { s.watchdog.run(ctx) })
	}
	s.state = StateActive
	metrics.ActiveSessions.Inc()

	m.log.Info().
		Str("session_id", s.id).
		Str("shipment_id", shipmentID).
		Str("subject_id", subjectID).
		Msg("monitoring started")
	return s.info(), nil
}

func (m *Manager) newSession(shipmentID, subjectID string, opts ports.SessionOptions) *session {
	id := uuid.NewString()
	log := m.log.With().Str("session_id", id).Str("shipment_id", shipmentID).Str("subject_id", subjectID).Logger()

	s := &session{
		id:         id,
		shipmentID: shipmentID,
		subjectID:  subjectID,
		startedAt:  m.now(),
		state:      StateIdle,
		health: &healthMonitor{
			shipmentID:     shipmentID,
			subjectID:      subjectID,
			opts:           opts,
			source:         m.deps.Source,
			reporter:       m.deps.Reporter,
			fleet:          m.deps.Fleet,
			shipments:      m.deps.Shipments,
			incidents:      m.deps.Incidents,
			log:            log,
			now:            m.now,
			lastIncidentAt: make(map[domain.IncidentType]time.Time),
		},
	}
	if !opts.DisableWatchdog {
		s.watchdog = newWatchdog(shipmentID, subjectID, opts.SignalLossThreshold, opts.SignalLossGrace,
			m.deps.Notifier, m.deps.Incidents, log, m.now)
	}
	return s
}

// Stop ends the session and waits for its goroutines to exit. Unknown or
// already stopped sessions are ignored.
func (m *Manager) Stop(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		m.detach(s)
	}
	m.mu.Unlock()

	if ok {
		m.halt(s)
	}
}

// StopShipment ends the session monitoring shipmentID, if any.
func (m *Manager) StopShipment(shipmentID string) {
	m.mu.Lock()
	s, ok := m.byShipment[shipmentID]
	if ok {
		m.detach(s)
	}
	m.mu.Unlock()

	if ok {
		m.halt(s)
	}
}

// detach removes s from the registry. Callers hold m.mu.
func (m *Manager) detach(s *session) {
	delete(m.sessions, s.id)
	delete(m.byShipment, s.shipmentID)
	s.state = StateStopped
}

func (m *Manager) halt(s *session) {
	s.cancel()
	s.wg.Wait()
	metrics.ActiveSessions.Dec()
	m.log.Info().Str("session_id", s.id).Str("shipment_id", s.shipmentID).Msg("monitoring stopped")
}

// Sessions returns a snapshot of the running sessions, oldest first.
func (m *Manager) Sessions() []ports.SessionInfo {
	m.mu.Lock()
	out := make([]ports.SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info())
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// LocationReported pushes back the signal-loss deadline of every session
// watching the subject.
func (m *Manager) LocationReported(subjectID string, sample domain.LocationSample) {
	m.mu.Lock()
	var dogs []*watchdog
	for _, s := range m.sessions {
		if s.subjectID == subjectID && s.watchdog != nil {
			dogs = append(dogs, s.watchdog)
		}
	}
	m.mu.Unlock()

	for _, w := range dogs {
		w.reset(sample)
	}
}

// OnTripAdvanced starts monitoring when a trip enters an active status and
// stops it when the trip leaves the active set.
func (m *Manager) OnTripAdvanced(ctx context.Context, event domain.TripEvent) error {
	if !event.To.IsActive() {
		m.StopShipment(event.ShipmentID)
		return nil
	}
	if event.DriverID == "" {
		return nil
	}
	_, err := m.Start(ctx, event.ShipmentID, event.DriverID, nil)
	if errors.Is(err, ErrManagerClosed) {
		return nil
	}
	return err
}

// Reconcile stops sessions whose shipment is gone or no longer active.
// Sessions whose status cannot be read are kept. It returns the number of
// sessions stopped.
func (m *Manager) Reconcile(ctx context.Context) int {
	m.mu.Lock()
	shipments := make([]string, 0, len(m.byShipment))
	for id := range m.byShipment {
		shipments = append(shipments, id)
	}
	m.mu.Unlock()

	p := pool.NewWithResults[string]().WithMaxGoroutines(8)
	for _, id := range shipments {
		p.Go(func() string {
			status, err := m.deps.Shipments.GetShipmentStatus(ctx, id)
			switch {
			case errors.Is(err, domain.ErrShipmentNotFound):
				return id
			case err != nil:
				m.log.Warn().Err(err).Str("shipment_id", id).Msg("reconcile: liveness check failed")
				return ""
			case !status.IsActive():
				return id
			}
			return ""
		})
	}

	stopped := 0
	for _, id := range p.Wait() {
		if id == "" {
			continue
		}
		m.StopShipment(id)
		stopped++
	}
	return stopped
}

// Shutdown stops every session and rejects further starts.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.cancel()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		m.detach(s)
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.halt(s)
	}
}
