package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

type managerFixture struct {
	source    *stubSource
	reporter  *stubReporter
	shipments *stubShipments
	incidents *stubIncidents
	notifier  *stubNotifier
	m         *Manager
}

func newManagerFixture(t *testing.T, defaults ports.SessionOptions) *managerFixture {
	t.Helper()
	f := &managerFixture{
		source:    &stubSource{sample: domain.LocationSample{Lat: -23.5, Lng: -46.6}},
		reporter:  &stubReporter{},
		shipments: newStubShipments(),
		incidents: &stubIncidents{},
		notifier:  &stubNotifier{},
	}
	f.m = NewManager(Deps{
		Source:    f.source,
		Reporter:  f.reporter,
		Fleet:     &stubFleet{},
		Shipments: f.shipments,
		Incidents: f.incidents,
		Notifier:  f.notifier,
	}, defaults, zerolog.Nop())
	t.Cleanup(f.m.Shutdown)
	return f
}

// quiet keeps session goroutines idle for the duration of a test.
var quiet = ports.SessionOptions{PollInterval: time.Hour, SignalLossThreshold: time.Hour}

func TestManager_StartIsIdempotentPerShipment(t *testing.T) {
	f := newManagerFixture(t, quiet)
	ctx := context.Background()

	first, err := f.m.Start(ctx, "SHP-1", "drv-1", nil)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if first.State != StateActive || first.ID == "" {
		t.Fatalf("unexpected session %+v", first)
	}

	again, err := f.m.Start(ctx, "SHP-1", "drv-1", nil)
	if err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected the existing session, got %s vs %s", again.ID, first.ID)
	}
	if got := len(f.m.Sessions()); got != 1 {
		t.Errorf("expected one session, got %d", got)
	}
}

func TestManager_StartValidation(t *testing.T) {
	f := newManagerFixture(t, quiet)
	if _, err := f.m.Start(context.Background(), "SHP-1", "", nil); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}

func TestManager_StopIsIdempotent(t *testing.T) {
	f := newManagerFixture(t, quiet)
	info, _ := f.m.Start(context.Background(), "SHP-1", "drv-1", nil)

	f.m.Stop(info.ID)
	f.m.Stop(info.ID)
	f.m.Stop("unknown")

	if got := len(f.m.Sessions()); got != 0 {
		t.Fatalf("expected no sessions, got %d", got)
	}

	// the shipment can be monitored again after a stop
	next, err := f.m.Start(context.Background(), "SHP-1", "drv-1", nil)
	if err != nil || next.ID == info.ID {
		t.Fatalf("expected a fresh session, got %+v, %v", next, err)
	}
}

func TestManager_SessionOutlivesStartContext(t *testing.T) {
	f := newManagerFixture(t, ports.SessionOptions{PollInterval: 10 * time.Millisecond, SignalLossThreshold: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := f.m.Start(ctx, "SHP-1", "drv-1", nil); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for f.reporter.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.reporter.count() == 0 {
		t.Fatal("expected the session to keep polling after the start context was cancelled")
	}
}

func TestManager_LocationReportedResetsWatchdog(t *testing.T) {
	f := newManagerFixture(t, quiet)
	info, _ := f.m.Start(context.Background(), "SHP-1", "drv-1", nil)

	f.m.LocationReported("drv-1", domain.LocationSample{Lat: 1, Lng: 2})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := f.m.Sessions(); len(s) == 1 && !s[0].LastReportAt.IsZero() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected session %s to record the report", info.ID)
}

func TestManager_DisableWatchdog(t *testing.T) {
	f := newManagerFixture(t, quiet)
	if _, err := f.m.Start(context.Background(), "SHP-1", "drv-1", &ports.SessionOptions{DisableWatchdog: true}); err != nil {
		t.Fatal(err)
	}

	f.m.LocationReported("drv-1", domain.LocationSample{Lat: 1, Lng: 2})

	if s := f.m.Sessions(); !s[0].LastReportAt.IsZero() {
		t.Error("a session without watchdog does not track reports")
	}
}

func TestManager_OnTripAdvanced(t *testing.T) {
	f := newManagerFixture(t, quiet)
	ctx := context.Background()

	err := f.m.OnTripAdvanced(ctx, domain.TripEvent{
		ShipmentID: "SHP-1", DriverID: "drv-1", From: domain.StatusNew, To: domain.StatusAccepted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(f.m.Sessions()); got != 1 {
		t.Fatalf("expected monitoring to start, got %d sessions", got)
	}

	_ = f.m.OnTripAdvanced(ctx, domain.TripEvent{
		ShipmentID: "SHP-1", DriverID: "drv-1", From: domain.StatusAccepted, To: domain.StatusLoading,
	})
	if got := len(f.m.Sessions()); got != 1 {
		t.Fatalf("expected the same session to continue, got %d", got)
	}

	_ = f.m.OnTripAdvanced(ctx, domain.TripEvent{
		ShipmentID: "SHP-1", DriverID: "drv-1", From: domain.StatusInTransit, To: domain.StatusDeliveredPendingConfirmation,
	})
	if got := len(f.m.Sessions()); got != 0 {
		t.Fatalf("expected monitoring to stop, got %d sessions", got)
	}
}

func TestManager_Reconcile(t *testing.T) {
	f := newManagerFixture(t, quiet)
	ctx := context.Background()

	f.shipments.set("SHP-ACTIVE", domain.StatusInTransit)
	f.shipments.set("SHP-DONE", domain.StatusCompleted)
	for _, id := range []string{"SHP-ACTIVE", "SHP-DONE", "SHP-GONE"} {
		if _, err := f.m.Start(ctx, id, "drv-"+id, nil); err != nil {
			t.Fatal(err)
		}
	}

	if n := f.m.Reconcile(ctx); n != 2 {
		t.Fatalf("expected 2 sessions stopped, got %d", n)
	}
	sessions := f.m.Sessions()
	if len(sessions) != 1 || sessions[0].ShipmentID != "SHP-ACTIVE" {
		t.Fatalf("unexpected remaining sessions %+v", sessions)
	}
}

func TestManager_ReconcileKeepsSessionsOnError(t *testing.T) {
	f := newManagerFixture(t, quiet)
	f.shipments.err = errors.New("mongo down")
	_, _ = f.m.Start(context.Background(), "SHP-1", "drv-1", nil)

	if n := f.m.Reconcile(context.Background()); n != 0 {
		t.Fatalf("expected no sessions stopped, got %d", n)
	}
}

func TestManager_Shutdown(t *testing.T) {
	f := newManagerFixture(t, quiet)
	_, _ = f.m.Start(context.Background(), "SHP-1", "drv-1", nil)
	_, _ = f.m.Start(context.Background(), "SHP-2", "drv-2", nil)

	f.m.Shutdown()

	if got := len(f.m.Sessions()); got != 0 {
		t.Fatalf("expected no sessions, got %d", got)
	}
	if _, err := f.m.Start(context.Background(), "SHP-3", "drv-3", nil); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
}

func TestMergeOptions(t *testing.T) {
	base := DefaultSessionOptions()
	got := mergeOptions(base, &ports.SessionOptions{FailureThreshold: 5, SignalLossGrace: time.Second})

	if got.FailureThreshold != 5 || got.SignalLossGrace != time.Second {
		t.Errorf("overrides not applied: %+v", got)
	}
	if got.PollInterval != base.PollInterval || got.IncidentCooldown != base.IncidentCooldown {
		t.Errorf("defaults not kept: %+v", got)
	}
}

func TestReconciler_InvalidSchedule(t *testing.T) {
	f := newManagerFixture(t, quiet)
	if _, err := NewReconciler(f.m, "not a schedule", zerolog.Nop()); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
	r, err := NewReconciler(f.m, "@every 1m", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Start()
	r.Stop()
}
