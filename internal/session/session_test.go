package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"viveo/internal/api"
	"viveo/internal/domain"
)

// fakeBackend is a scriptable Backend. GetJob serves per-job response
// sequences, repeating the last step once exhausted.
type fakeBackend struct {
	mu sync.Mutex

	submitResult *domain.Job
	submitErr    error
	submitCalls  int

	jobSteps map[string][]jobStep
	getCalls map[string]int
	getDelay time.Duration

	inFlight    int
	maxInFlight int

	balance      domain.Balance
	balanceErr   error
	balanceCalls int

	ledger    []domain.LedgerEntry
	ledgerErr error

	history   []domain.Job
	addResult *api.AddCreditsResult
	addErr    error
}

type jobStep struct {
	job *domain.Job
	err error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		jobSteps: make(map[string][]jobStep),
		getCalls: make(map[string]int),
	}
}

func (f *fakeBackend) SubmitJob(ctx context.Context, req api.SubmitJobRequest) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	job := *f.submitResult
	return &job, nil
}

func (f *fakeBackend) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	f.mu.Lock()
	f.getCalls[id]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	steps := f.jobSteps[id]
	idx := f.getCalls[id] - 1
	if idx >= len(steps) {
		idx = len(steps) - 1
	}
	delay := f.getDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	step := steps[idx]
	if step.err != nil {
		return nil, step.err
	}
	job := *step.job
	return &job, nil
}

func (f *fakeBackend) JobHistory(ctx context.Context, limit, offset int) (*api.JobPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jobs := make([]domain.Job, len(f.history))
	copy(jobs, f.history)
	return &api.JobPage{Jobs: jobs, Total: len(jobs), Limit: limit, Offset: offset}, nil
}

func (f *fakeBackend) Balance(ctx context.Context) (*domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	bal := f.balance
	return &bal, nil
}

func (f *fakeBackend) AddCredits(ctx context.Context, amount int, paymentID string) (*api.AddCreditsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	res := *f.addResult
	return &res, nil
}

func (f *fakeBackend) LedgerHistory(ctx context.Context, limit, offset int) (*api.LedgerPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ledgerErr != nil {
		return nil, f.ledgerErr
	}
	entries := make([]domain.LedgerEntry, 0, limit)
	for i := offset; i < len(f.ledger) && len(entries) < limit; i++ {
		entries = append(entries, f.ledger[i])
	}
	return &api.LedgerPage{Entries: entries, Total: len(f.ledger), Limit: limit, Offset: offset}, nil
}

func (f *fakeBackend) getCallCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls[id]
}

func (f *fakeBackend) maxConcurrentGets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

var _ Backend = (*fakeBackend)(nil)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
