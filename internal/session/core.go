package session

import (
	"context"
	"fmt"
	"time"

	"viveo/internal/infra"
)

// Core is the composition root of the client session: one registry, one
// wallet, one poller, and the submission gate wired over a shared backend.
type Core struct {
	Registry *Registry
	Wallet   *Wallet
	Poller   *Poller
	Gate     *Gate

	backend Backend
}

// CoreOptions configures a session Core.
type CoreOptions struct {
	Backend      Backend
	PollInterval time.Duration
	MaxJobCost   int
	Logger       *infra.Logger
}

func NewCore(opts CoreOptions) *Core {
	registry := NewRegistry()
	wallet := NewWallet(WalletOptions{Backend: opts.Backend, Logger: opts.Logger})
	poller := NewPoller(PollerOptions{
		Backend:  opts.Backend,
		Registry: registry,
		Interval: opts.PollInterval,
		Logger:   opts.Logger,
	})
	gate := NewGate(GateOptions{
		Backend:    opts.Backend,
		Registry:   registry,
		Wallet:     wallet,
		Poller:     poller,
		MaxJobCost: opts.MaxJobCost,
		Logger:     opts.Logger,
	})
	return &Core{Registry: registry, Wallet: wallet, Poller: poller, Gate: gate, backend: opts.Backend}
}

// HydrateHistory seeds the registry from the job history endpoint and
// restarts poll loops for jobs still in flight.
func (c *Core) HydrateHistory(ctx context.Context, limit, offset int) error {
	page, err := c.backend.JobHistory(ctx, limit, offset)
	if err != nil {
		return fmt.Errorf("session: hydrate history: %w", err)
	}
	c.Registry.Hydrate(page.Jobs)
	for _, job := range page.Jobs {
		if !job.Status.IsTerminal() {
			c.Poller.Start(job.ID)
		}
	}
	return nil
}

// Close stops all polling. Jobs keep their last known state.
func (c *Core) Close() {
	c.Poller.StopAll()
	c.Poller.Wait()
}
