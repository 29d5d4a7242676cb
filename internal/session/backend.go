package session

import (
	"context"

	"viveo/internal/api"
	"viveo/internal/domain"
)

// Backend is the slice of the backend API surface the session core depends
// on. *api.Client satisfies it; tests inject fakes.
type Backend interface {
	SubmitJob(ctx context.Context, req api.SubmitJobRequest) (*domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	JobHistory(ctx context.Context, limit, offset int) (*api.JobPage, error)
	Balance(ctx context.Context) (*domain.Balance, error)
	AddCredits(ctx context.Context, amount int, paymentID string) (*api.AddCreditsResult, error)
	LedgerHistory(ctx context.Context, limit, offset int) (*api.LedgerPage, error)
}

var _ Backend = (*api.Client)(nil)
