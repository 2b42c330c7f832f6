package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

const defaultFixMaxAge = 2 * time.Minute

// PositionSource stores the raw fixes pushed by the driver app and serves the
// latest one to the monitoring loop. Key format: gps:fix:<driver_id>
type PositionSource struct {
	client *redis.Client
	maxAge time.Duration
	now    func() time.Time
}

func NewPositionSource(client *redis.Client, maxAge time.Duration) *PositionSource {
	if maxAge <= 0 {
		maxAge = defaultFixMaxAge
	}
	return &PositionSource{client: client, maxAge: maxAge, now: time.Now}
}

// StoreFix replaces the subject's latest fix. The key outlives the fix's
// useful age so that a stale read can be told apart from a missing one.
func (p *PositionSource) StoreFix(ctx context.Context, subjectID string, s domain.LocationSample) error {
	if s.CapturedAt.IsZero() {
		s.CapturedAt = p.now()
	}
	fields := map[string]any{
		"lat":         strconv.FormatFloat(s.Lat, 'f', -1, 64),
		"lng":         strconv.FormatFloat(s.Lng, 'f', -1, 64),
		"captured_at": s.CapturedAt.UnixMilli(),
	}
	if s.Accuracy != nil {
		fields["accuracy"] = strconv.FormatFloat(*s.Accuracy, 'f', -1, 64)
	}
	if s.Heading != nil {
		fields["heading"] = strconv.FormatFloat(*s.Heading, 'f', -1, 64)
	}
	if s.Speed != nil {
		fields["speed"] = strconv.FormatFloat(*s.Speed, 'f', -1, 64)
	}

	key := fixKey(subjectID)
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 2*p.maxAge)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store gps fix: %w", err)
	}
	return nil
}

// Acquire returns the latest fix. It fails with domain.ErrNoFix when none is
// stored and domain.ErrStaleFix when the fix is older than the maximum age.
func (p *PositionSource) Acquire(ctx context.Context, subjectID string) (domain.LocationSample, error) {
	vals, err := p.client.HGetAll(ctx, fixKey(subjectID)).Result()
	if err != nil {
		return domain.LocationSample{}, fmt.Errorf("read gps fix: %w", err)
	}
	if len(vals) == 0 {
		return domain.LocationSample{}, domain.ErrNoFix
	}

	s, err := parseFix(vals)
	if err != nil {
		return domain.LocationSample{}, fmt.Errorf("decode gps fix: %w", err)
	}
	if age := p.now().Sub(s.CapturedAt); age > p.maxAge {
		return domain.LocationSample{}, fmt.Errorf("%w: %s old", domain.ErrStaleFix, age.Truncate(time.Second))
	}
	return s, nil
}

func parseFix(vals map[string]string) (domain.LocationSample, error) {
	var s domain.LocationSample
	var err error

	if s.Lat, err = strconv.ParseFloat(vals["lat"], 64); err != nil {
		return s, fmt.Errorf("lat: %w", err)
	}
	if s.Lng, err = strconv.ParseFloat(vals["lng"], 64); err != nil {
		return s, fmt.Errorf("lng: %w", err)
	}
	ms, err := strconv.ParseInt(vals["captured_at"], 10, 64)
	if err != nil {
		return s, fmt.Errorf("captured_at: %w", err)
	}
	s.CapturedAt = time.UnixMilli(ms).UTC()

	s.Accuracy = optionalFloat(vals, "accuracy")
	s.Heading = optionalFloat(vals, "heading")
	s.Speed = optionalFloat(vals, "speed")
	return s, nil
}

func optionalFloat(vals map[string]string, field string) *float64 {
	raw, ok := vals[field]
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func fixKey(subjectID string) string {
	return "gps:fix:" + subjectID
}
