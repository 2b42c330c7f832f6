package service

import (
	"context"
	"fmt"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

// TripCacheInvalidator drops the cached trip whenever it advances.
type TripCacheInvalidator struct {
	cache ports.TripCache
}

func NewTripCacheInvalidator(cache ports.TripCache) *TripCacheInvalidator {
	return &TripCacheInvalidator{cache: cache}
}

func (i *TripCacheInvalidator) OnTripAdvanced(ctx context.Context, event domain.TripEvent) error {
	if err := i.cache.Invalidate(ctx, event.ShipmentID); err != nil {
		return fmt.Errorf("invalidate trip cache: %w", err)
	}
	return nil
}

// TripUserNotifier tells the shipper about each stage the trip reaches.
type TripUserNotifier struct {
	notifier ports.Notifier
}

func NewTripUserNotifier(notifier ports.Notifier) *TripUserNotifier {
	return &TripUserNotifier{notifier: notifier}
}

func (n *TripUserNotifier) OnTripAdvanced(ctx context.Context, event domain.TripEvent) error {
	if event.ShipperID == "" {
		return nil
	}
	msg := fmt.Sprintf("Sua carga %s está agora em: %s", event.ShipmentID, event.To.Label())
	if err := n.notifier.NotifyUser(ctx, event.ShipperID, msg); err != nil {
		return fmt.Errorf("notify shipper: %w", err)
	}
	return nil
}
