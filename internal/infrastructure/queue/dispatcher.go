package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
	"github.com/fretenet/trip-monitor/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes trip events to a fixed set of workers using consistent
// hashing on the shipment ID, guaranteeing per-shipment event ordering. Each
// worker hands the event to every subscriber in registration order.
type Dispatcher struct {
	workers     []chan domain.TripEvent
	subscribers []ports.TripSubscriber
	log         zerolog.Logger
	wg          sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger, subscribers ...ports.TripSubscriber) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:     make([]chan domain.TripEvent, numWorkers),
		subscribers: subscribers,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TripEvent, channelBuffer)
	}
	return d
}

// Subscribe adds a subscriber. It must be called before Start.
func (d *Dispatcher) Subscribe(s ports.TripSubscriber) {
	d.subscribers = append(d.subscribers, s)
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish sends an event to the worker responsible for its shipment.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Publish(event domain.TripEvent) {
	idx := d.shardIndex(event.ShipmentID)
	d.workers[idx] <- event
	metrics.TripEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a shipment ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(shipmentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(shipmentID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.TripEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.TripEventsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, event)
		}
	}
}

// deliver runs every subscriber; one failing subscriber does not stop the rest.
func (d *Dispatcher) deliver(ctx context.Context, worker int, event domain.TripEvent) {
	for _, s := range d.subscribers {
		if err := s.OnTripAdvanced(ctx, event); err != nil {
			d.log.Error().Err(err).
				Str("shipment_id", event.ShipmentID).
				Str("to", string(event.To)).
				Int("worker_id", worker).
				Msg("trip event subscriber failed")
		}
	}
}
