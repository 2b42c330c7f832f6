package service

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

type stubLocationRepo struct {
	mu         sync.Mutex
	current    map[string]domain.LocationSample
	history    []string // subject:shipment
	upsertErr  error
	historyErr error
	// block, when set, makes UpsertCurrent wait until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func newStubLocationRepo() *stubLocationRepo {
	return &stubLocationRepo{current: make(map[string]domain.LocationSample)}
}

func (r *stubLocationRepo) UpsertCurrent(_ context.Context, subjectID string, s domain.LocationSample) error {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[subjectID] = s
	return nil
}

func (r *stubLocationRepo) AppendHistory(_ context.Context, subjectID, shipmentID string, _ domain.LocationSample) error {
	if r.historyErr != nil {
		return r.historyErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, subjectID+":"+shipmentID)
	return nil
}

func (r *stubLocationRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.current) + len(r.history)
}

type stubLegacyWriter struct {
	written []string
	err     error
}

func (w *stubLegacyWriter) WriteLegacy(_ context.Context, subjectID string, _ domain.LocationSample) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, subjectID)
	return nil
}

type recordingListener struct {
	mu       sync.Mutex
	subjects []string
}

func (l *recordingListener) LocationReported(subjectID string, _ domain.LocationSample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subjects = append(l.subjects, subjectID)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLocationSvc(repo *stubLocationRepo, legacy *stubLegacyWriter, clock *fakeClock) *LocationService {
	svc := NewLocationService(repo, legacy, 5*time.Second, zerolog.Nop())
	svc.now = clock.Now
	return svc
}

func sample() domain.LocationSample {
	return domain.LocationSample{Lat: -23.5505, Lng: -46.6333}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLocationService_Report_FansOut(t *testing.T) {
	repo := newStubLocationRepo()
	legacy := &stubLegacyWriter{}
	listener := &recordingListener{}
	svc := newLocationSvc(repo, legacy, newFakeClock())
	svc.SetListener(listener)

	res := svc.Report(context.Background(), "drv-1", sample(), "SHP-1")

	if !res.Accepted || res.Fatal != nil || len(res.Recovered) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, ok := repo.current["drv-1"]; !ok {
		t.Error("expected current location upsert")
	}
	if len(legacy.written) != 1 {
		t.Error("expected legacy write")
	}
	if len(repo.history) != 1 || repo.history[0] != "drv-1:SHP-1" {
		t.Errorf("expected history append, got %v", repo.history)
	}
	if len(listener.subjects) != 1 {
		t.Error("expected listener to be told")
	}
}

func TestLocationService_Report_NoShipmentSkipsHistory(t *testing.T) {
	repo := newStubLocationRepo()
	svc := newLocationSvc(repo, &stubLegacyWriter{}, newFakeClock())

	res := svc.Report(context.Background(), "drv-1", sample(), "")
	if !res.Accepted {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(repo.history) != 0 {
		t.Errorf("expected no history, got %v", repo.history)
	}
}

func TestLocationService_Report_Throttled(t *testing.T) {
	repo := newStubLocationRepo()
	clock := newFakeClock()
	svc := newLocationSvc(repo, &stubLegacyWriter{}, clock)
	ctx := context.Background()

	if res := svc.Report(ctx, "drv-1", sample(), "SHP-1"); !res.Accepted {
		t.Fatalf("first report should be accepted: %+v", res)
	}
	writes := repo.writes()

	clock.Advance(2 * time.Second)
	res := svc.Report(ctx, "drv-1", sample(), "SHP-1")
	if res.Accepted || res.Reason != ports.RejectThrottled {
		t.Fatalf("expected throttled, got %+v", res)
	}
	if repo.writes() != writes {
		t.Error("throttled report must not write")
	}

	clock.Advance(4 * time.Second)
	if res := svc.Report(ctx, "drv-1", sample(), "SHP-1"); !res.Accepted {
		t.Fatalf("report after the interval should be accepted: %+v", res)
	}
}

func TestLocationService_Report_ThrottleIsPerSubject(t *testing.T) {
	svc := newLocationSvc(newStubLocationRepo(), &stubLegacyWriter{}, newFakeClock())
	ctx := context.Background()

	if !svc.Report(ctx, "drv-1", sample(), "").Accepted {
		t.Fatal("drv-1 should be accepted")
	}
	if !svc.Report(ctx, "drv-2", sample(), "").Accepted {
		t.Fatal("drv-2 should not be throttled by drv-1")
	}
}

func TestLocationService_Report_SingleFlight(t *testing.T) {
	repo := newStubLocationRepo()
	repo.block = make(chan struct{})
	repo.entered = make(chan struct{}, 1)
	clock := newFakeClock()
	svc := newLocationSvc(repo, &stubLegacyWriter{}, clock)
	ctx := context.Background()

	done := make(chan ports.ReportResult)
	go func() { done <- svc.Report(ctx, "drv-1", sample(), "") }()
	<-repo.entered

	// Even past the throttle window a concurrent call is rejected, not queued.
	clock.Advance(10 * time.Second)
	res := svc.Report(ctx, "drv-1", sample(), "")
	if res.Accepted || res.Reason != ports.RejectInFlight {
		t.Fatalf("expected in-flight rejection, got %+v", res)
	}

	close(repo.block)
	if first := <-done; !first.Accepted {
		t.Fatalf("first report should succeed: %+v", first)
	}

	repo.entered = nil
	clock.Advance(10 * time.Second)
	if res := svc.Report(ctx, "drv-1", sample(), ""); !res.Accepted {
		t.Fatalf("report after release should be accepted: %+v", res)
	}
}

func TestLocationService_Report_PrimaryFailureIsFatal(t *testing.T) {
	repo := newStubLocationRepo()
	repo.upsertErr = errors.New("mongo unavailable")
	legacy := &stubLegacyWriter{}
	listener := &recordingListener{}
	svc := newLocationSvc(repo, legacy, newFakeClock())
	svc.SetListener(listener)

	res := svc.Report(context.Background(), "drv-1", sample(), "SHP-1")

	if res.Accepted || res.Reason != ports.RejectWriteFailed {
		t.Fatalf("expected write failure, got %+v", res)
	}
	var pe *domain.PersistenceError
	if !errors.As(res.Fatal, &pe) {
		t.Fatalf("expected PersistenceError, got %v", res.Fatal)
	}
	if len(legacy.written) != 0 || len(repo.history) != 0 {
		t.Error("secondary writes must not run after a primary failure")
	}
	if len(listener.subjects) != 0 {
		t.Error("listener must not be told about a failed report")
	}
}

func TestLocationService_Report_SecondaryFailuresAreRecovered(t *testing.T) {
	repo := newStubLocationRepo()
	repo.historyErr = errors.New("history collection locked")
	legacy := &stubLegacyWriter{err: errors.New("redis timeout")}
	svc := newLocationSvc(repo, legacy, newFakeClock())

	res := svc.Report(context.Background(), "drv-1", sample(), "SHP-1")

	if !res.Accepted || res.Fatal != nil {
		t.Fatalf("expected success despite secondary failures, got %+v", res)
	}
	if len(res.Recovered) != 2 {
		t.Errorf("expected 2 recovered failures, got %v", res.Recovered)
	}
}

func TestLocationService_Report_InvalidSample(t *testing.T) {
	repo := newStubLocationRepo()
	svc := newLocationSvc(repo, &stubLegacyWriter{}, newFakeClock())

	res := svc.Report(context.Background(), "drv-1", domain.LocationSample{Lat: 120, Lng: 0}, "")
	if res.Accepted || res.Reason != ports.RejectInvalid || !errors.Is(res.Fatal, domain.ErrInvalidSample) {
		t.Fatalf("expected invalid sample rejection, got %+v", res)
	}
	if repo.writes() != 0 {
		t.Error("invalid sample must not write")
	}

	// an invalid sample does not consume the throttle slot
	if res := svc.Report(context.Background(), "drv-1", sample(), ""); !res.Accepted {
		t.Fatalf("expected valid sample to be accepted, got %+v", res)
	}
}

func TestLocationService_Report_FailedWriteKeepsThrottleSlot(t *testing.T) {
	repo := newStubLocationRepo()
	repo.upsertErr = errors.New("mongo unavailable")
	clock := newFakeClock()
	svc := newLocationSvc(repo, &stubLegacyWriter{}, clock)
	ctx := context.Background()

	if res := svc.Report(ctx, "drv-1", sample(), ""); res.Reason != ports.RejectWriteFailed {
		t.Fatalf("expected write failure, got %+v", res)
	}

	// the store recovers; the retry counts from the last accepted call, and there was none
	repo.upsertErr = nil
	clock.Advance(time.Second)
	if res := svc.Report(ctx, "drv-1", sample(), ""); !res.Accepted {
		t.Fatalf("retry after a failed write should be accepted, got %+v", res)
	}

	clock.Advance(time.Second)
	if res := svc.Report(ctx, "drv-1", sample(), ""); res.Reason != ports.RejectThrottled {
		t.Fatalf("expected throttled after an accepted call, got %+v", res)
	}
}

func TestLocationService_IdleLimitersAreDropped(t *testing.T) {
	clock := newFakeClock()
	svc := newLocationSvc(newStubLocationRepo(), &stubLegacyWriter{}, clock)
	ctx := context.Background()

	for _, id := range []string{"drv-1", "drv-2", "drv-3"} {
		if !svc.Report(ctx, id, sample(), "").Accepted {
			t.Fatalf("%s should be accepted", id)
		}
	}
	if got := svc.trackedSubjects(); got != 3 {
		t.Fatalf("expected 3 limiters, got %d", got)
	}

	clock.Advance(2 * time.Minute)
	if !svc.Report(ctx, "drv-4", sample(), "").Accepted {
		t.Fatal("drv-4 should be accepted")
	}
	if got := svc.trackedSubjects(); got != 1 {
		t.Fatalf("expected only the fresh limiter to remain, got %d", got)
	}

	// a dropped subject is admitted like a new one
	if !svc.Report(ctx, "drv-1", sample(), "").Accepted {
		t.Fatal("drv-1 should be accepted after its limiter was dropped")
	}
}
