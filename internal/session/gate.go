package session

import (
	"context"
	"fmt"
	"strings"

	"viveo/internal/api"
	"viveo/internal/domain"
	"viveo/internal/infra"
)

// SubmitRequest is a prospective job. Cost is the locally estimated charge
// the gate checks against the balance cache; the server's creditsUsed
// remains authoritative once the job is accepted.
type SubmitRequest struct {
	Prompt          string
	Cost            int
	DurationSeconds int
	AspectRatio     string
	Style           string
}

// Gate performs the pre-flight credit check and, on acceptance, registers
// the job and starts its poll loop. It never retries and never deduplicates
// concurrent submissions; disabling the submit control while a request is in
// flight is the caller's responsibility.
type Gate struct {
	backend    Backend
	registry   *Registry
	wallet     *Wallet
	poller     *Poller
	maxJobCost int
	logger     *infra.Logger
}

// GateOptions configures a Gate.
type GateOptions struct {
	Backend    Backend
	Registry   *Registry
	Wallet     *Wallet
	Poller     *Poller
	MaxJobCost int
	Logger     *infra.Logger
}

func NewGate(opts GateOptions) *Gate {
	logger := opts.Logger
	if logger == nil {
		logger = infra.Discard()
	}
	return &Gate{
		backend:    opts.Backend,
		registry:   opts.Registry,
		wallet:     opts.Wallet,
		poller:     opts.Poller,
		maxJobCost: opts.MaxJobCost,
		logger:     logger,
	}
}

// Submit validates the request, gates it against the cached balance, and
// issues the create-job call. The balance pre-check is optimistic: the
// server performs the authoritative check, and a server-side rejection for
// insufficient credits surfaces as the same domain.ErrInsufficientCredits
// as the local one. A rejected submission never moves the balance cache.
func (g *Gate) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}
	if req.Cost <= 0 {
		return "", fmt.Errorf("%w: cost must be a positive number of credits", domain.ErrValidation)
	}
	if g.maxJobCost > 0 && req.Cost > g.maxJobCost {
		return "", fmt.Errorf("%w: cost %d exceeds the per-job maximum of %d", domain.ErrValidation, req.Cost, g.maxJobCost)
	}
	if balance, known := g.wallet.Cached(); known && balance < req.Cost {
		g.logger.Debug().Int("cost", req.Cost).Int("balance", balance).Msg("gate: rejected locally")
		return "", domain.ErrInsufficientCredits
	}

	job, err := g.backend.SubmitJob(ctx, api.SubmitJobRequest{
		Prompt:          prompt,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		Style:           req.Style,
	})
	if err != nil {
		return "", err
	}

	g.registry.Add(*job)
	g.wallet.Debit(job.CreditsUsed)
	if g.poller != nil {
		g.poller.Start(job.ID)
	}
	g.logger.Info().
		Str("job_id", job.ID).
		Int("credits_used", job.CreditsUsed).
		Msg("gate: job submitted")
	return job.ID, nil
}
