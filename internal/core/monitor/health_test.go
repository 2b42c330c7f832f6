package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSource struct {
	mu     sync.Mutex
	sample domain.LocationSample
	err    error
	calls  int
}

func (s *stubSource) Acquire(_ context.Context, _ string) (domain.LocationSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.sample, s.err
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type stubReporter struct {
	mu      sync.Mutex
	reports []string
}

func (r *stubReporter) Report(_ context.Context, subjectID string, _ domain.LocationSample, shipmentID string) ports.ReportResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, subjectID+":"+shipmentID)
	return ports.ReportResult{Accepted: true}
}

func (r *stubReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type stubFleet struct {
	err   error
	calls int
}

func (f *stubFleet) UpdateFleetLocation(_ context.Context, _ string, _ domain.LocationSample) error {
	f.calls++
	return f.err
}

type stubShipments struct {
	mu       sync.Mutex
	statuses map[string]domain.TripStatus
	err      error
	reads    int
}

func newStubShipments() *stubShipments {
	return &stubShipments{statuses: make(map[string]domain.TripStatus)}
}

func (s *stubShipments) GetShipmentStatus(_ context.Context, shipmentID string) (domain.TripStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return "", s.err
	}
	st, ok := s.statuses[shipmentID]
	if !ok {
		return "", domain.ErrShipmentNotFound
	}
	return st, nil
}

func (s *stubShipments) set(shipmentID string, status domain.TripStatus) {
	s.mu.Lock()
	s.statuses[shipmentID] = status
	s.mu.Unlock()
}

func (s *stubShipments) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

type stubIncidents struct {
	mu        sync.Mutex
	incidents []*domain.Incident
	err       error
}

func (s *stubIncidents) CreateIncident(_ context.Context, incident *domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.incidents = append(s.incidents, incident)
	return nil
}

func (s *stubIncidents) all() []*domain.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Incident(nil), s.incidents...)
}

type stubNotifier struct {
	mu        sync.Mutex
	users     []string
	operators []string
}

func (n *stubNotifier) NotifyUser(_ context.Context, userID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID+": "+message)
	return nil
}

func (n *stubNotifier) NotifyOperators(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.operators = append(n.operators, message)
	return nil
}

func (n *stubNotifier) userMessages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.users...)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type healthFixture struct {
	source    *stubSource
	reporter  *stubReporter
	fleet     *stubFleet
	shipments *stubShipments
	incidents *stubIncidents
	clock     time.Time
	h         *healthMonitor
}

func newHealthFixture() *healthFixture {
	f := &healthFixture{
		source:    &stubSource{sample: domain.LocationSample{Lat: -23.5, Lng: -46.6}},
		reporter:  &stubReporter{},
		fleet:     &stubFleet{},
		shipments: newStubShipments(),
		incidents: &stubIncidents{},
		clock:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	f.h = &healthMonitor{
		shipmentID:     "SHP-1",
		subjectID:      "drv-1",
		opts:           DefaultSessionOptions(),
		source:         f.source,
		reporter:       f.reporter,
		fleet:          f.fleet,
		shipments:      f.shipments,
		incidents:      f.incidents,
		log:            zerolog.Nop(),
		now:            func() time.Time { return f.clock },
		lastIncidentAt: make(map[domain.IncidentType]time.Time),
	}
	return f
}

func (f *healthFixture) ticks(n int) {
	for i := 0; i < n; i++ {
		f.h.tick(context.Background())
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealth_SuccessReportsAndResetsCounter(t *testing.T) {
	f := newHealthFixture()
	f.source.fail(errors.New("timeout"))
	f.ticks(2)
	if got := f.h.consecutiveFailures(); got != 2 {
		t.Fatalf("expected 2 failures, got %d", got)
	}

	f.source.fail(nil)
	f.ticks(1)

	if got := f.h.consecutiveFailures(); got != 0 {
		t.Errorf("expected counter reset, got %d", got)
	}
	if f.reporter.count() != 1 {
		t.Errorf("expected one report, got %d", f.reporter.count())
	}
	if f.fleet.calls != 1 {
		t.Errorf("expected fleet update, got %d calls", f.fleet.calls)
	}
}

func TestHealth_NotAffiliatedIsSwallowed(t *testing.T) {
	f := newHealthFixture()
	f.fleet.err = domain.ErrNotAffiliated

	f.ticks(1)

	if f.reporter.count() != 1 {
		t.Error("report should still be made")
	}
	if got := f.h.consecutiveFailures(); got != 0 {
		t.Errorf("fleet errors must not count as acquisition failures, got %d", got)
	}
}

func TestHealth_EscalatesOnceWhenActive(t *testing.T) {
	f := newHealthFixture()
	f.shipments.set("SHP-1", domain.StatusInTransit)
	f.source.fail(errors.New("no fix"))

	f.ticks(3)

	incidents := f.incidents.all()
	if len(incidents) != 1 {
		t.Fatalf("expected exactly one incident, got %d", len(incidents))
	}
	inc := incidents[0]
	if inc.Type != domain.IncidentGPSAcquisitionFailure || inc.Severity != domain.SeverityCritical {
		t.Errorf("unexpected incident %+v", inc)
	}
	if inc.Evidence["failure_count"] != 3 || inc.Evidence["last_error"] != "no fix" || inc.Evidence["subject_id"] != "drv-1" {
		t.Errorf("unexpected evidence %+v", inc.Evidence)
	}
	reads := f.shipments.readCount()

	// 4th failure inside the cool-down window
	f.clock = f.clock.Add(time.Minute)
	f.ticks(1)

	if len(f.incidents.all()) != 1 {
		t.Fatalf("expected no additional incident within cool-down, got %d", len(f.incidents.all()))
	}
	if f.shipments.readCount() != reads {
		t.Error("cool-down suppression must not read the shipment status")
	}
}

func TestHealth_EscalatesAgainAfterCooldown(t *testing.T) {
	f := newHealthFixture()
	f.shipments.set("SHP-1", domain.StatusInTransit)
	f.source.fail(errors.New("no fix"))

	f.ticks(3)
	f.clock = f.clock.Add(2*time.Hour + time.Second)
	f.ticks(1)

	if got := len(f.incidents.all()); got != 2 {
		t.Fatalf("expected a second incident after cool-down, got %d", got)
	}
}

func TestHealth_BelowThresholdNoIncident(t *testing.T) {
	f := newHealthFixture()
	f.shipments.set("SHP-1", domain.StatusInTransit)
	f.source.fail(errors.New("no fix"))

	f.ticks(2)

	if len(f.incidents.all()) != 0 || f.shipments.readCount() != 0 {
		t.Error("no escalation expected below the threshold")
	}
}

func TestHealth_SuppressedWhenInactive(t *testing.T) {
	f := newHealthFixture()
	f.shipments.set("SHP-1", domain.StatusDelivered)
	f.source.fail(errors.New("no fix"))

	f.ticks(3)

	if len(f.incidents.all()) != 0 {
		t.Fatalf("expected no incident for an inactive shipment")
	}
	if got := f.h.consecutiveFailures(); got != 0 {
		t.Errorf("expected counter reset, got %d", got)
	}
}

func TestHealth_SuppressedWhenNotFoundOrLivenessFails(t *testing.T) {
	for name, setup := range map[string]func(*stubShipments){
		"not found": func(*stubShipments) {},
		"error":     func(s *stubShipments) { s.err = errors.New("mongo down") },
	} {
		t.Run(name, func(t *testing.T) {
			f := newHealthFixture()
			setup(f.shipments)
			f.source.fail(errors.New("no fix"))

			f.ticks(3)

			if len(f.incidents.all()) != 0 {
				t.Fatal("expected suppression")
			}
			if got := f.h.consecutiveFailures(); got != 0 {
				t.Errorf("expected counter reset, got %d", got)
			}
		})
	}
}

func TestHealth_IncidentErrorDoesNotStopMonitoring(t *testing.T) {
	f := newHealthFixture()
	f.shipments.set("SHP-1", domain.StatusInTransit)
	f.incidents.err = errors.New("insert failed")
	f.source.fail(errors.New("no fix"))

	f.ticks(3)
	f.incidents.err = nil
	f.ticks(1)

	if got := len(f.incidents.all()); got != 1 {
		t.Fatalf("expected the next failure to retry escalation, got %d incidents", got)
	}
}
