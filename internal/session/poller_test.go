package session

import (
	"testing"
	"time"

	"viveo/internal/domain"
)

func newTestPoller(backend *fakeBackend, reg *Registry, interval time.Duration) *Poller {
	return NewPoller(PollerOptions{Backend: backend, Registry: reg, Interval: interval})
}

// A job that reports PROCESSING with progress and then COMPLETED with a video
// URL gets both updates applied, and the loop stops after the terminal tick.
func TestPollerAdvancesJobToCompletion(t *testing.T) {
	backend := newFakeBackend()
	backend.jobSteps["job_1"] = []jobStep{
		{job: &domain.Job{ID: "job_1", Status: domain.JobStatusProcessing, Progress: 40}},
		{job: &domain.Job{ID: "job_1", Status: domain.JobStatusCompleted, VideoURL: "https://cdn.viveo.example.com/job_1.mp4"}},
	}
	reg := NewRegistry()
	reg.Add(domain.Job{ID: "job_1", Status: domain.JobStatusPending})
	poller := newTestPoller(backend, reg, 5*time.Millisecond)

	poller.Start("job_1")
	waitFor(t, 2*time.Second, func() bool {
		job, _ := reg.Get("job_1")
		return job.Status == domain.JobStatusCompleted
	}, "job should reach COMPLETED")

	job, _ := reg.Get("job_1")
	if job.VideoURL != "https://cdn.viveo.example.com/job_1.mp4" {
		t.Fatalf("video url not recorded: %+v", job)
	}
	waitFor(t, 2*time.Second, func() bool { return !poller.Active("job_1") }, "loop should stop at terminal state")
}

// Once a job is terminal, no further fetch happens.
func TestPollerStopsFetchingAfterTerminal(t *testing.T) {
	backend := newFakeBackend()
	backend.jobSteps["job_1"] = []jobStep{
		{job: &domain.Job{ID: "job_1", Status: domain.JobStatusCompleted}},
	}
	reg := NewRegistry()
	reg.Add(domain.Job{ID: "job_1", Status: domain.JobStatusPending})
	poller := newTestPoller(backend, reg, 5*time.Millisecond)

	poller.Start("job_1")
	waitFor(t, 2*time.Second, func() bool { return !poller.Active("job_1") }, "loop should stop")
	poller.Wait()

	calls := backend.getCallCount("job_1")
	time.Sleep(50 * time.Millisecond)
	if got := backend.getCallCount("job_1"); got != calls {
		t.Fatalf("fetches continued after terminal state: %d -> %d", calls, got)
	}
}

// A fetch slower than the interval never overlaps the next tick's fetch.
func TestPollerNeverOverlapsFetches(t *testing.T) {
	backend := newFakeBackend()
	backend.getDelay = 15 * time.Millisecond
	backend.jobSteps["job_1"] = []jobStep{
		{job: &domain.Job{ID: "job_1", Status: domain.JobStatusProcessing}},
	}
	reg := NewRegistry()
	reg.Add(domain.Job{ID: "job_1", Status: domain.JobStatusPending})
	poller := newTestPoller(backend, reg, time.Millisecond)

	poller.Start("job_1")
	waitFor(t, 2*time.Second, func() bool { return backend.getCallCount("job_1") >= 5 }, "several ticks should run")
	poller.Stop("job_1")
	poller.Wait()

	if got := backend.maxConcurrentGets(); got != 1 {
		t.Fatalf("concurrent fetches for one job: %d", got)
	}
}

// A transient failure (including an unrecognized status mapped by the
// client) leaves the entry untouched and the loop active.
func TestPollerSwallowsTransientFailures(t *testing.T) {
	backend := newFakeBackend()
	backend.jobSteps["job_1"] = []jobStep{
		{err: domain.ErrTransient},
		{err: domain.ErrTransient},
		{job: &domain.Job{ID: "job_1", Status: domain.JobStatusProcessing, Progress: 10}},
	}
	reg := NewRegistry()
	reg.Add(domain.Job{ID: "job_1", Status: domain.JobStatusPending})
	poller := newTestPoller(backend, reg, 5*time.Millisecond)

	poller.Start("job_1")
	waitFor(t, 2*time.Second, func() bool { return backend.getCallCount("job_1") >= 2 }, "loop should keep ticking through failures")

	job, _ := reg.Get("job_1")
	if job.Status != domain.JobStatusPending && job.Status != domain.JobStatusProcessing {
		t.Fatalf("transient failure corrupted state: %+v", job)
	}
	waitFor(t, 2*time.Second, func() bool {
		job, _ := reg.Get("job_1")
		return job.Status == domain.JobStatusProcessing
	}, "loop should recover once the backend does")
	poller.Stop("job_1")
	poller.Wait()
}

func TestPollerNotFoundMarksJobFailedAndStops(t *testing.T) {
	backend := newFakeBackend()
	backend.jobSteps["job_1"] = []jobStep{
		{err: domain.ErrNotFound},
	}
	reg := NewRegistry()
	reg.Add(domain.Job{ID: "job_1", Status: domain.JobStatusPending})
	poller := newTestPoller(backend, reg, 5*time.Millisecond)

	poller.Start("job_1")
	waitFor(t, 2*time.Second, func() bool { return !poller.Active("job_1") }, "loop should stop on NotFound")
	poller.Wait()

	job, _ := reg.Get("job_1")
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("NotFound should mark the job FAILED, got %q", job.Status)
	}
	if job.Error == "" {
		t.Fatalf("expected a failure reason")
	}
}

func TestPollerStartIsIdempotentPerJob(t *testing.T) {
	backend := newFakeBackend()
	backend.jobSteps["job_1"] = []jobStep{
		{job: &domain.Job{ID: "job_1", Status: domain.JobStatusProcessing}},
	}
	reg := NewRegistry()
	poller := newTestPoller(backend, reg, 5*time.Millisecond)

	if !poller.Start("job_1") {
		t.Fatalf("first Start should launch a loop")
	}
	if poller.Start("job_1") {
		t.Fatalf("second Start for an active job must be a no-op")
	}
	poller.Stop("job_1")
	poller.Wait()
}

func TestPollerStopCancelsLoopAndKeepsState(t *testing.T) {
	backend := newFakeBackend()
	backend.jobSteps["job_1"] = []jobStep{
		{job: &domain.Job{ID: "job_1", Status: domain.JobStatusProcessing, Progress: 30}},
	}
	reg := NewRegistry()
	reg.Add(domain.Job{ID: "job_1", Status: domain.JobStatusPending})
	poller := newTestPoller(backend, reg, 5*time.Millisecond)

	poller.Start("job_1")
	waitFor(t, 2*time.Second, func() bool {
		job, _ := reg.Get("job_1")
		return job.Status == domain.JobStatusProcessing
	}, "loop should tick at least once")

	poller.Stop("job_1")
	poller.Wait()

	calls := backend.getCallCount("job_1")
	time.Sleep(50 * time.Millisecond)
	if got := backend.getCallCount("job_1"); got != calls {
		t.Fatalf("cancelled loop kept fetching: %d -> %d", calls, got)
	}
	job, _ := reg.Get("job_1")
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("cancellation must leave the last known state, got %q", job.Status)
	}
}

func TestPollerStopAllCancelsEveryLoop(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry()
	for _, id := range []string{"job_1", "job_2", "job_3"} {
		backend.jobSteps[id] = []jobStep{
			{job: &domain.Job{ID: id, Status: domain.JobStatusProcessing}},
		}
		reg.Add(domain.Job{ID: id, Status: domain.JobStatusPending})
	}
	poller := newTestPoller(backend, reg, 5*time.Millisecond)
	for _, id := range []string{"job_1", "job_2", "job_3"} {
		poller.Start(id)
	}

	poller.StopAll()
	poller.Wait()

	for _, id := range []string{"job_1", "job_2", "job_3"} {
		if poller.Active(id) {
			t.Fatalf("loop %s still active after StopAll", id)
		}
	}
}
