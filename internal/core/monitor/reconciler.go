package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const reconcileTimeout = 30 * time.Second

// Reconciler periodically stops sessions whose shipment left the active set
// without a trip event reaching the manager.
type Reconciler struct {
	cron *cron.Cron
}

func NewReconciler(m *Manager, schedule string, log zerolog.Logger) (*Reconciler, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		if n := m.Reconcile(ctx); n > 0 {
			log.Info().Int("stopped", n).Msg("reconciled monitoring sessions")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule reconciler %q: %w", schedule, err)
	}
	return &Reconciler{cron: c}, nil
}

func (r *Reconciler) Start() { r.cron.Start() }

// Stop halts the schedule and waits for a running reconcile to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}
