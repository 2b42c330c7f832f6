package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

const defaultLegacyTTL = 30 * time.Minute

// LegacyLocationWriter keeps the fallback location hash read by older map
// clients. Key format: driver:location:<driver_id>
type LegacyLocationWriter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLegacyLocationWriter(client *redis.Client, ttl time.Duration) *LegacyLocationWriter {
	if ttl <= 0 {
		ttl = defaultLegacyTTL
	}
	return &LegacyLocationWriter{client: client, ttl: ttl}
}

// WriteLegacy overwrites the hash and refreshes its expiry in one round trip.
func (w *LegacyLocationWriter) WriteLegacy(ctx context.Context, subjectID string, s domain.LocationSample) error {
	key := legacyKey(subjectID)
	_, err := w.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"lat", strconv.FormatFloat(s.Lat, 'f', -1, 64),
			"lng", strconv.FormatFloat(s.Lng, 'f', -1, 64),
			"updated_at", s.CapturedAt.UTC().Format(time.RFC3339),
		)
		p.Expire(ctx, key, w.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write legacy location: %w", err)
	}
	return nil
}

func legacyKey(subjectID string) string {
	return "driver:location:" + subjectID
}
