package session

import (
	"context"
	"fmt"
	"sync"

	"viveo/internal/domain"
	"viveo/internal/infra"
)

// Wallet owns the cached credit balance and the read-only ledger view. The
// cache mutates only on confirmed server responses: a refresh replaces it
// wholesale, a confirmed charge debits it, a confirmed purchase adopts the
// returned total. It is never decremented optimistically.
type Wallet struct {
	backend Backend
	logger  *infra.Logger

	mu      sync.Mutex
	credits int
	plan    string
	known   bool
}

// WalletOptions configures a Wallet.
type WalletOptions struct {
	Backend Backend
	Logger  *infra.Logger
}

func NewWallet(opts WalletOptions) *Wallet {
	logger := opts.Logger
	if logger == nil {
		logger = infra.Discard()
	}
	return &Wallet{backend: opts.Backend, logger: logger}
}

// Cached returns the cached balance and whether it has ever been populated.
func (w *Wallet) Cached() (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.credits, w.known
}

// Plan returns the cached subscription plan name, when known.
func (w *Wallet) Plan() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.plan
}

// Refresh fetches the authoritative balance and replaces the cached value
// unconditionally. Last fetch wins; no merge with local deltas.
func (w *Wallet) Refresh(ctx context.Context) (int, error) {
	bal, err := w.backend.Balance(ctx)
	if err != nil {
		return 0, fmt.Errorf("wallet: refresh balance: %w", err)
	}
	w.mu.Lock()
	w.credits = bal.Credits
	w.plan = bal.Plan
	w.known = true
	w.mu.Unlock()
	w.logger.Debug().Int("credits", bal.Credits).Msg("wallet: balance refreshed")
	return bal.Credits, nil
}

// Debit applies a server-confirmed charge to the cache. The balance is
// non-negative; a charge larger than the cached value clamps to zero and is
// resolved by the next refresh.
func (w *Wallet) Debit(amount int) {
	if amount <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.known {
		return
	}
	w.credits -= amount
	if w.credits < 0 {
		w.credits = 0
	}
}

// AddCredits purchases credits and adopts the returned authoritative total.
func (w *Wallet) AddCredits(ctx context.Context, amount int, paymentID string) (int, error) {
	res, err := w.backend.AddCredits(ctx, amount, paymentID)
	if err != nil {
		return 0, fmt.Errorf("wallet: add credits: %w", err)
	}
	w.mu.Lock()
	w.credits = res.Credits
	w.known = true
	w.mu.Unlock()
	w.logger.Info().Int("added", res.Added).Int("credits", res.Credits).Msg("wallet: credits added")
	return res.Credits, nil
}

// LedgerPage fetches one page of the server ledger, newest-first. Pure read;
// the cache is untouched.
func (w *Wallet) LedgerPage(ctx context.Context, limit, offset int) ([]domain.LedgerEntry, int, error) {
	page, err := w.backend.LedgerHistory(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("wallet: fetch ledger: %w", err)
	}
	return page.Entries, page.Total, nil
}

// Reconcile compares the newest ledger entry's balanceAfter with the cached
// balance. On mismatch it adopts the ledger value (newer, server-assigned
// data), logs the discrepancy, and re-syncs against the balance endpoint.
// Returns whether a mismatch was observed.
func (w *Wallet) Reconcile(ctx context.Context) (bool, error) {
	page, err := w.backend.LedgerHistory(ctx, 1, 0)
	if err != nil {
		return false, fmt.Errorf("wallet: reconcile: %w", err)
	}
	if len(page.Entries) == 0 {
		return false, nil
	}
	newest := page.Entries[0]

	w.mu.Lock()
	cached, known := w.credits, w.known
	if !known || cached == newest.BalanceAfter {
		w.credits = newest.BalanceAfter
		w.known = true
		w.mu.Unlock()
		return false, nil
	}
	w.credits = newest.BalanceAfter
	w.mu.Unlock()

	w.logger.Warn().
		Int("cached", cached).
		Int("ledger_balance_after", newest.BalanceAfter).
		Str("entry_id", newest.ID).
		Msg("wallet: stale balance cache, re-syncing")
	if _, err := w.Refresh(ctx); err != nil {
		return true, err
	}
	return true, nil
}
