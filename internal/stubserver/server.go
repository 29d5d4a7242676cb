// Package stubserver is an in-memory stand-in for the viveo backend. It
// implements the six REST operations the client core consumes, with jobs
// that advance PENDING -> PROCESSING -> COMPLETED on a fixed cadence and a
// ledger that records every balance mutation. It exists for local
// development (cmd/stubd) and hermetic integration tests.
package stubserver

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"viveo/internal/domain"
	"viveo/internal/infra"
)

// Options configures the stub world.
type Options struct {
	InitialCredits int
	CostPerSecond  int
	AdvanceAfter   time.Duration
	RequireToken   string
	Plan           string
	Logger         *infra.Logger
	Now            func() time.Time
}

// Server holds the mutable stub world behind one mutex.
type Server struct {
	logger        *infra.Logger
	costPerSecond int
	advanceAfter  time.Duration
	requireToken  string
	now           func() time.Time

	mu      sync.Mutex
	credits int
	plan    string
	jobs    []*stubJob
	byID    map[string]*stubJob
	ledger  []domain.LedgerEntry
	seq     int
}

type stubJob struct {
	id              string
	prompt          string
	durationSeconds int
	aspectRatio     string
	style           string
	creditsUsed     int
	createdAt       time.Time
	status          domain.JobStatus
	progress        int
	videoURL        string
	completedAt     time.Time
	wantFail        bool
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = infra.Discard()
	}
	costPerSecond := opts.CostPerSecond
	if costPerSecond <= 0 {
		costPerSecond = 2
	}
	advanceAfter := opts.AdvanceAfter
	if advanceAfter <= 0 {
		advanceAfter = 4 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	plan := opts.Plan
	if plan == "" {
		plan = "free"
	}
	return &Server{
		logger:        logger,
		costPerSecond: costPerSecond,
		advanceAfter:  advanceAfter,
		requireToken:  opts.RequireToken,
		now:           now,
		credits:       opts.InitialCredits,
		plan:          plan,
		byID:          make(map[string]*stubJob),
	}
}

// createJob charges the wallet and registers a PENDING job. Prompts
// containing "fail" produce a job that fails at the terminal phase, so
// failure handling is exercisable without special endpoints.
func (s *Server) createJob(prompt string, durationSeconds int, aspectRatio, style string) (*stubJob, error) {
	if durationSeconds <= 0 {
		durationSeconds = 10
	}
	cost := durationSeconds * s.costPerSecond

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credits < cost {
		return nil, domain.ErrInsufficientCredits
	}
	s.credits -= cost
	job := &stubJob{
		id:              fmt.Sprintf("job_%s", uuid.NewString()),
		prompt:          prompt,
		durationSeconds: durationSeconds,
		aspectRatio:     aspectRatio,
		style:           style,
		creditsUsed:     cost,
		createdAt:       s.now(),
		status:          domain.JobStatusPending,
		wantFail:        strings.Contains(strings.ToLower(prompt), "fail"),
	}
	s.jobs = append(s.jobs, job)
	s.byID[job.id] = job
	s.appendLedgerLocked(domain.LedgerJobCharge, -cost, job.id, "video generation charge")
	s.logger.Debug().Str("job_id", job.id).Int("cost", cost).Msg("stub: job created")
	return job, nil
}

// settleLocked advances a job along the lattice based on elapsed time.
// Transitions are one-way; a settled terminal job never changes again. A
// failing job refunds its charge the moment it fails.
func (s *Server) settleLocked(job *stubJob) {
	if job.status.IsTerminal() {
		return
	}
	elapsed := s.now().Sub(job.createdAt)
	switch {
	case elapsed < s.advanceAfter:
		// still PENDING
	case elapsed < 2*s.advanceAfter:
		job.status = domain.JobStatusProcessing
		job.progress = int(50 * (elapsed - s.advanceAfter) / s.advanceAfter)
		if job.progress < 10 {
			job.progress = 10
		}
	default:
		job.completedAt = job.createdAt.Add(2 * s.advanceAfter)
		if job.wantFail {
			job.status = domain.JobStatusFailed
			s.credits += job.creditsUsed
			s.appendLedgerLocked(domain.LedgerRefund, job.creditsUsed, job.id, "refund for failed generation")
		} else {
			job.status = domain.JobStatusCompleted
			job.progress = 100
			job.videoURL = fmt.Sprintf("https://cdn.viveo.example.com/videos/%s.mp4", job.id)
		}
	}
}

func (s *Server) appendLedgerLocked(kind domain.LedgerEntryType, amount int, refID, desc string) {
	s.seq++
	s.ledger = append(s.ledger, domain.LedgerEntry{
		ID:           fmt.Sprintf("txn_%06d", s.seq),
		Amount:       amount,
		BalanceAfter: s.credits,
		Type:         kind,
		ReferenceID:  refID,
		Description:  desc,
		CreatedAt:    s.now(),
	})
}

// addCredits applies a purchase and records it in the ledger.
func (s *Server) addCredits(amount int, paymentID string) (credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits += amount
	s.appendLedgerLocked(domain.LedgerPurchase, amount, paymentID, "credit purchase")
	return s.credits
}

// Credits reports the current balance. Test helper.
func (s *Server) Credits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}

// GrantBonus credits the wallet outside a purchase, recording a bonus
// ledger entry. Used by stubd to simulate referral grants.
func (s *Server) GrantBonus(amount int, desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits += amount
	s.appendLedgerLocked(domain.LedgerBonus, amount, "", desc)
}

// ledgerPage returns entries newest-first. Stable for identical pagination
// parameters when no new entries exist.
func (s *Server) ledgerPage(limit, offset int) ([]domain.LedgerEntry, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.ledger)
	out := make([]domain.LedgerEntry, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.ledger[i])
	}
	return out, total
}

// jobPage returns settled jobs newest-first.
func (s *Server) jobPage(limit, offset int) ([]*stubJob, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.jobs)
	out := make([]*stubJob, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		s.settleLocked(s.jobs[i])
		snapshot := *s.jobs[i]
		out = append(out, &snapshot)
	}
	return out, total
}

func (s *Server) getJob(id string) (*stubJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	s.settleLocked(job)
	snapshot := *job
	return &snapshot, true
}

func (s *Server) balance() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits, s.plan
}
