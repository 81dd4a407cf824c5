package release

import "time"

// Status is the outcome of one package attempt.
type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusDryRun    Status = "dry-run"
)

// Outcome records what happened to one package.
type Outcome struct {
	Package string
	Status  Status
	// Version is the target version, or the recorded one for a skip.
	Version  string
	Artifact string
	Err      error
	Duration time.Duration
}

// Summary lists the outcomes of a run in processing order.
type Summary struct {
	Outcomes []Outcome
}

// Count returns how many packages ended with status s.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Packages returns the names of the packages with status s.
func (s *Summary) Packages(status Status) []string {
	var names []string
	for _, o := range s.Outcomes {
		if o.Status == status {
			names = append(names, o.Package)
		}
	}
	return names
}
