package domain

import "time"

// Balance is the spendable credit total reported by the wallet endpoint.
type Balance struct {
	Credits int
	Plan    string
}

// LedgerEntryType tags the cause of a credit mutation.
type LedgerEntryType string

const (
	LedgerJobCharge         LedgerEntryType = "JOB_CHARGE"
	LedgerRefund            LedgerEntryType = "REFUND"
	LedgerPurchase          LedgerEntryType = "PURCHASE"
	LedgerSubscriptionGrant LedgerEntryType = "SUBSCRIPTION_GRANT"
	LedgerBonus             LedgerEntryType = "BONUS"
)

// LedgerEntry is an immutable, server-assigned record of a single balance
// mutation. The client only ever renders fetched entries; it never
// constructs or mutates them.
type LedgerEntry struct {
	ID           string
	Amount       int
	BalanceAfter int
	Type         LedgerEntryType
	ReferenceID  string
	Description  string
	CreatedAt    time.Time
}
