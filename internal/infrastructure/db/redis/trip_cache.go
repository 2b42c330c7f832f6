package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

const defaultTripCacheTTL = 10 * time.Minute

// TripCache caches trip progress records as JSON. Key format: trip:<shipment_id>
type TripCache struct {
	cache *cache.Cache[string]
	log   zerolog.Logger
}

func NewTripCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *TripCache {
	if ttl <= 0 {
		ttl = defaultTripCacheTTL
	}
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))
	return &TripCache{cache: cache.New[string](redisStore), log: log}
}

// Get returns the cached trip. Misses and decode errors both report false.
func (c *TripCache) Get(ctx context.Context, shipmentID string) (*domain.TripProgress, bool) {
	raw, err := c.cache.Get(ctx, tripKey(shipmentID))
	if err != nil {
		return nil, false
	}
	var t domain.TripProgress
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		c.log.Warn().Err(err).Str("shipment_id", shipmentID).Msg("dropping undecodable cached trip")
		return nil, false
	}
	return &t, true
}

// Set stores the trip. Failures only cost a later cache miss.
func (c *TripCache) Set(ctx context.Context, trip *domain.TripProgress) {
	raw, err := json.Marshal(trip)
	if err != nil {
		c.log.Warn().Err(err).Str("shipment_id", trip.ShipmentID).Msg("failed to encode trip for cache")
		return
	}
	if err := c.cache.Set(ctx, tripKey(trip.ShipmentID), string(raw)); err != nil {
		c.log.Warn().Err(err).Str("shipment_id", trip.ShipmentID).Msg("failed to cache trip")
	}
}

func (c *TripCache) Invalidate(ctx context.Context, shipmentID string) error {
	if err := c.cache.Delete(ctx, tripKey(shipmentID)); err != nil {
		return fmt.Errorf("delete cached trip: %w", err)
	}
	return nil
}

func tripKey(shipmentID string) string {
	return "trip:" + shipmentID
}
