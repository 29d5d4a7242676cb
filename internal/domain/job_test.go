package domain

import (
	"errors"
	"testing"
)

func TestParseJobStatusNormalizes(t *testing.T) {
	cases := map[string]JobStatus{
		"PENDING":     JobStatusPending,
		"processing":  JobStatusProcessing,
		" COMPLETED ": JobStatusCompleted,
		"failed":      JobStatusFailed,
	}
	for raw, want := range cases {
		got, err := ParseJobStatus(raw)
		if err != nil {
			t.Fatalf("ParseJobStatus(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseJobStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseJobStatusRejectsUnknownAsTransient(t *testing.T) {
	_, err := ParseJobStatus("UNKNOWN")
	if err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("unknown status should map to ErrTransient, got %v", err)
	}
}

func TestSupersedesFollowsLattice(t *testing.T) {
	if !JobStatusProcessing.Supersedes(JobStatusPending) {
		t.Fatalf("PROCESSING should supersede PENDING")
	}
	if JobStatusPending.Supersedes(JobStatusProcessing) {
		t.Fatalf("PENDING must not supersede PROCESSING")
	}
	if !JobStatusCompleted.Supersedes(JobStatusProcessing) {
		t.Fatalf("COMPLETED should supersede PROCESSING")
	}
	if !JobStatusProcessing.Supersedes(JobStatusProcessing) {
		t.Fatalf("a repeated status should still apply")
	}
}

func TestTerminalStatesAreStable(t *testing.T) {
	for _, terminal := range []JobStatus{JobStatusCompleted, JobStatusFailed} {
		for _, next := range []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed} {
			if next.Supersedes(terminal) {
				t.Fatalf("%s must not supersede terminal %s", next, terminal)
			}
		}
	}
	if JobStatusPending.IsTerminal() || JobStatusProcessing.IsTerminal() {
		t.Fatalf("PENDING/PROCESSING are not terminal")
	}
	if !JobStatusCompleted.IsTerminal() || !JobStatusFailed.IsTerminal() {
		t.Fatalf("COMPLETED/FAILED are terminal")
	}
}
