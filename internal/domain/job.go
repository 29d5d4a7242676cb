package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus enumerates job lifecycle states as reported by the backend.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// statusRank orders statuses along the lifecycle lattice. Both terminal
// states share the highest rank; a job never moves between them.
var statusRank = map[JobStatus]int{
	JobStatusPending:    0,
	JobStatusProcessing: 1,
	JobStatusCompleted:  2,
	JobStatusFailed:     2,
}

// Rank returns the position of the status in the lifecycle lattice.
func (s JobStatus) Rank() int {
	return statusRank[s]
}

// IsTerminal reports whether no further transition is permitted.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Supersedes reports whether applying s on top of cur would move the job
// forward (or sideways) in the lattice. A terminal current status is never
// superseded.
func (s JobStatus) Supersedes(cur JobStatus) bool {
	if cur.IsTerminal() {
		return false
	}
	return s.Rank() >= cur.Rank()
}

// ParseJobStatus normalizes a wire status string. An unrecognized value is
// reported as a transient failure so a misbehaving backend can never
// introduce a local state the lattice does not know about.
func ParseJobStatus(raw string) (JobStatus, error) {
	s := JobStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return s, nil
	}
	return "", fmt.Errorf("%w: unrecognized job status %q", ErrTransient, raw)
}

// Job encapsulates one unit of asynchronous video generation tracked by the
// client. The ID is opaque and server-issued; CreditsUsed is the
// server-confirmed charge, authoritative over any local estimate.
type Job struct {
	ID          string
	Prompt      string
	Status      JobStatus
	Progress    int
	VideoURL    string
	CreditsUsed int
	Error       string
	CreatedAt   time.Time
	CompletedAt time.Time
}
