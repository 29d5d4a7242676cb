package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"viveo/internal/domain"
	"viveo/internal/infra"
)

const defaultPollInterval = 3 * time.Second

// Poller runs one cancellable poll loop per job identifier. Each loop is a
// single goroutine that fetches the job's status on a fixed interval and
// applies the result to the registry until a terminal state is observed.
// Because the goroutine blocks on its own fetch and the ticker drops missed
// ticks, fetches for one job can never overlap.
type Poller struct {
	backend  Backend
	registry *Registry
	interval time.Duration
	logger   *infra.Logger

	mu    sync.Mutex
	loops map[string]*loopHandle
	wg    sync.WaitGroup
}

type loopHandle struct {
	cancel context.CancelFunc
}

// PollerOptions configures a Poller. A zero Interval falls back to 3s.
type PollerOptions struct {
	Backend  Backend
	Registry *Registry
	Interval time.Duration
	Logger   *infra.Logger
}

func NewPoller(opts PollerOptions) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.Discard()
	}
	return &Poller{
		backend:  opts.Backend,
		registry: opts.Registry,
		interval: interval,
		logger:   logger,
		loops:    make(map[string]*loopHandle),
	}
}

// Start launches a poll loop for the job. Starting an already-active
// identifier is a no-op; at most one loop exists per job at any time.
// Returns whether a new loop was launched.
func (p *Poller) Start(jobID string) bool {
	if jobID == "" {
		return false
	}
	p.mu.Lock()
	if _, active := p.loops[jobID]; active {
		p.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	handle := &loopHandle{cancel: cancel}
	p.loops[jobID] = handle
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(ctx, jobID, handle)
	return true
}

// Stop cancels the loop for one job. The last known registry state is left
// untouched.
func (p *Poller) Stop(jobID string) {
	p.mu.Lock()
	handle, ok := p.loops[jobID]
	if ok {
		delete(p.loops, jobID)
	}
	p.mu.Unlock()
	if ok {
		handle.cancel()
	}
}

// StopAll cancels every active loop. Invoked on session end or when the
// auth collaborator triggers a logout.
func (p *Poller) StopAll() {
	p.mu.Lock()
	handles := make([]*loopHandle, 0, len(p.loops))
	for id, handle := range p.loops {
		handles = append(handles, handle)
		delete(p.loops, id)
	}
	p.mu.Unlock()
	for _, handle := range handles {
		handle.cancel()
	}
}

// Active reports whether a loop currently exists for the job.
func (p *Poller) Active(jobID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.loops[jobID]
	return ok
}

// Wait blocks until every loop goroutine has exited. Test helper; callers
// normally rely on StopAll.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, jobID string, handle *loopHandle) {
	defer p.wg.Done()
	defer p.release(jobID, handle)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tick(ctx, jobID) {
				return
			}
		}
	}
}

// tick performs one status fetch and reports whether the loop is done. A
// transient fetch failure is not evidence of job failure: the state is left
// untouched and the loop keeps ticking. A NotFound is terminal: the job is
// marked FAILED and the loop stops.
func (p *Poller) tick(ctx context.Context, jobID string) bool {
	job, err := p.backend.GetJob(ctx, jobID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		if errors.Is(err, domain.ErrNotFound) {
			p.registry.MarkFailed(jobID, "job no longer exists on the server")
			p.logger.Warn().Str("job_id", jobID).Msg("poller: job not found, marking failed")
			return true
		}
		p.logger.Debug().Err(err).Str("job_id", jobID).Msg("poller: fetch failed, will retry")
		return false
	}

	p.registry.Apply(*job)
	if job.Status.IsTerminal() {
		p.logger.Info().
			Str("job_id", jobID).
			Str("status", string(job.Status)).
			Msg("poller: job reached terminal state")
		return true
	}
	return false
}

// release drops the loop's registration unless a newer loop has already
// claimed the identifier.
func (p *Poller) release(jobID string, handle *loopHandle) {
	p.mu.Lock()
	if cur, ok := p.loops[jobID]; ok && cur == handle {
		delete(p.loops, jobID)
	}
	p.mu.Unlock()
}
