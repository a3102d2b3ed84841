package session

import (
	"context"
	"time"

	"github.com/loomworks/authcore/component"
	"github.com/loomworks/authcore/logger"
)

var _ component.Component = (*Component)(nil)

// Component runs the manager's expiry sweep as a managed background task.
type Component struct {
	manager *Manager
	log     *logger.Logger
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewComponent wraps a Manager for lifecycle management.
func NewComponent(manager *Manager, log *logger.Logger) *Component {
	return &Component{
		manager: manager,
		log:     log.WithComponent("session-sweeper"),
	}
}

// Name returns the component name.
func (c *Component) Name() string { return "session-sweeper" }

// Start launches the sweep loop.
func (c *Component) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	interval := c.manager.cfg.SweepInterval
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := c.sweepOnce(runCtx); err != nil {
					c.log.WithError(err).Warn("sweep failed")
				}
			}
		}
	}()

	c.log.Info("sweep loop started", map[string]interface{}{
		"interval": interval.String(),
	})
	return nil
}

// sweepOnce runs one sweep iteration under the configured store
// deadline, so a hung backend cannot wedge the loop.
func (c *Component) sweepOnce(ctx context.Context) error {
	sweepCtx, cancel := context.WithTimeout(ctx, c.manager.cfg.StoreTimeout)
	defer cancel()
	return c.manager.Sweep(sweepCtx)
}

// Stop cancels the sweep loop and waits for it to exit.
func (c *Component) Stop(ctx context.Context) error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
