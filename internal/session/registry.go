package session

import (
	"sort"
	"sync"

	"viveo/internal/domain"
)

// Registry is the session-scoped store of known jobs, keyed by the
// server-issued identifier. It is the exclusive owner of job state: the
// submission gate inserts, the poll loop applies updates, readers get
// snapshot copies. All coordination lives inside the container; callers
// never see partial writes.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*domain.Job)}
}

// Add inserts a job after server acknowledgment. An existing entry with the
// same identifier is left untouched.
func (r *Registry) Add(job domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return
	}
	stored := job
	r.jobs[job.ID] = &stored
}

// Hydrate seeds the registry from a fetched history page. Jobs already
// known to the session keep their local state.
func (r *Registry) Hydrate(jobs []domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range jobs {
		if _, ok := r.jobs[job.ID]; ok {
			continue
		}
		stored := job
		r.jobs[job.ID] = &stored
	}
}

// Get returns a snapshot copy of one job.
func (r *Registry) Get(id string) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// List returns snapshot copies of all known jobs, newest-first.
func (r *Registry) List() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Len reports the number of known jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Apply merges a fetched job state into the registry, enforcing the status
// lattice: a status ranked below the current one is discarded, and a
// terminal entry is never modified again. Unknown identifiers are inserted
// as reported (the server is authoritative on existence). Returns whether
// the entry changed.
func (r *Registry) Apply(update domain.Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[update.ID]
	if !ok {
		stored := update
		r.jobs[update.ID] = &stored
		return true
	}
	if !update.Status.Supersedes(cur.Status) {
		return false
	}
	cur.Status = update.Status
	if update.Progress > 0 {
		cur.Progress = update.Progress
	}
	if update.VideoURL != "" {
		cur.VideoURL = update.VideoURL
	}
	if update.CreditsUsed > 0 {
		cur.CreditsUsed = update.CreditsUsed
	}
	if update.Error != "" {
		cur.Error = update.Error
	}
	if !update.CompletedAt.IsZero() {
		cur.CompletedAt = update.CompletedAt
	}
	return true
}

// MarkFailed forces a job into FAILED with a reason. Used when the backend
// no longer recognizes the identifier. A job already terminal is left as is.
func (r *Registry) MarkFailed(id, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.jobs[id]
	if !ok || cur.Status.IsTerminal() {
		return false
	}
	cur.Status = domain.JobStatusFailed
	cur.Error = reason
	return true
}
