package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

const (
	defaultMinReportInterval = 5 * time.Second
	limiterSweepInterval     = time.Minute
)

// LocationService is the throttled, single-flight location writer.
//
// Per subject at most one report is in progress and at most one report is
// accepted per minimum interval, counted from the last accepted call.
// Rejected calls never touch the stores.
type LocationService struct {
	store       ports.LocationRepository
	legacy      ports.LegacyLocationWriter
	listener    ports.LocationListener
	minInterval time.Duration
	log         zerolog.Logger
	now         func() time.Time

	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	inFlight  map[string]struct{}
	lastSweep time.Time
}

// NewLocationService returns a LocationService. A non-positive minInterval
// falls back to 5s.
func NewLocationService(
	store ports.LocationRepository,
	legacy ports.LegacyLocationWriter,
	minInterval time.Duration,
	log zerolog.Logger,
) *LocationService {
	if minInterval <= 0 {
		minInterval = defaultMinReportInterval
	}
	return &LocationService{
		store:       store,
		legacy:      legacy,
		minInterval: minInterval,
		log:         log,
		now:         time.Now,
		limiters:    make(map[string]*rate.Limiter),
		inFlight:    make(map[string]struct{}),
	}
}

// SetListener registers the listener told about accepted reports.
// It must be called before the service is used concurrently.
func (s *LocationService) SetListener(l ports.LocationListener) {
	s.listener = l
}

// Report writes the sample to the current-location record, the legacy
// fallback record and, when shipmentID is set, the shipment's history.
// Only a failed current-location write makes the call fail.
func (s *LocationService) Report(ctx context.Context, subjectID string, sample domain.LocationSample, shipmentID string) ports.ReportResult {
	if err := sample.Validate(); err != nil {
		return s.reject(ports.RejectInvalid, err)
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = s.now().UTC()
	}

	admittedAt := s.now()
	if reason := s.admit(subjectID, admittedAt); reason != ports.RejectNone {
		s.log.Debug().Str("subject_id", subjectID).Str("reason", string(reason)).Msg("location report rejected")
		return s.reject(reason, nil)
	}
	defer s.release(subjectID)

	if err := s.store.UpsertCurrent(ctx, subjectID, sample); err != nil {
		s.log.Error().Err(err).Str("subject_id", subjectID).Msg("failed to write current location")
		return s.reject(ports.RejectWriteFailed, &domain.PersistenceError{Op: "upsert current location", Err: err})
	}
	s.consume(subjectID, admittedAt)

	res := ports.ReportResult{Accepted: true}

	if s.legacy != nil {
		if err := s.legacy.WriteLegacy(ctx, subjectID, sample); err != nil {
			metrics.LocationSecondaryWriteFailuresTotal.WithLabelValues("legacy").Inc()
			s.log.Warn().Err(err).Str("subject_id", subjectID).Msg("failed to write legacy location")
			res.Recovered = append(res.Recovered, &domain.PersistenceError{Op: "write legacy location", Err: err})
		}
	}

	if shipmentID != "" {
		if err := s.store.AppendHistory(ctx, subjectID, shipmentID, sample); err != nil {
			metrics.LocationSecondaryWriteFailuresTotal.WithLabelValues("history").Inc()
			s.log.Warn().Err(err).Str("subject_id", subjectID).Str("shipment_id", shipmentID).Msg("failed to append location history")
			res.Recovered = append(res.Recovered, &domain.PersistenceError{Op: "append location history", Err: err})
		}
	}

	metrics.LocationReportsTotal.WithLabelValues("accepted").Inc()
	if s.listener != nil {
		s.listener.LocationReported(subjectID, sample)
	}
	return res
}

// admit applies the single-flight and throttle gates. The throttle slot is
// only checked here; it is taken by consume once the current location is
// written, so a failed write leaves the subject free to retry.
func (s *LocationService) admit(subjectID string, at time.Time) ports.RejectReason {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(at)

	if _, busy := s.inFlight[subjectID]; busy {
		return ports.RejectInFlight
	}
	if lim, ok := s.limiters[subjectID]; ok && lim.TokensAt(at) < 1 {
		return ports.RejectThrottled
	}

	s.inFlight[subjectID] = struct{}{}
	return ports.RejectNone
}

// consume takes the throttle slot of an accepted call. The caller is still
// in flight, so no other call for the subject ran since admit.
func (s *LocationService) consume(subjectID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lim, ok := s.limiters[subjectID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(s.minInterval), 1)
		s.limiters[subjectID] = lim
	}
	lim.AllowN(at, 1)
}

func (s *LocationService) release(subjectID string) {
	s.mu.Lock()
	delete(s.inFlight, subjectID)
	s.mu.Unlock()
}

// sweepLocked drops limiters whose bucket refilled. A full bucket admits the
// next call exactly like a fresh limiter, so dropping it changes nothing.
// Callers hold s.mu.
func (s *LocationService) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < limiterSweepInterval {
		return
	}
	s.lastSweep = now
	for id, lim := range s.limiters {
		if _, busy := s.inFlight[id]; busy {
			continue
		}
		if lim.TokensAt(now) >= 1 {
			delete(s.limiters, id)
		}
	}
}

func (s *LocationService) trackedSubjects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

func (s *LocationService) reject(reason ports.RejectReason, err error) ports.ReportResult {
	metrics.LocationReportsTotal.WithLabelValues(string(reason)).Inc()
	return ports.ReportResult{Reason: reason, Fatal: err}
}

