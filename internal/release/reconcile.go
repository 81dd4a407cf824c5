// Package release decides which packages have a new version to ship and
// drives the guarded manifest-write, build, publish sequence for them.
package release

import (
	"fmt"
	"strings"

	"github.com/ariel-frischer/releasekit/internal/changelog"
	"github.com/blang/semver/v4"
)

// DecisionKind tags a Decision.
type DecisionKind int

const (
	// DecisionNoOp means the candidate version is already recorded.
	DecisionNoOp DecisionKind = iota
	// DecisionPublish means Target must be written, built and published.
	DecisionPublish
	// DecisionMalformed means the changelog cannot be released from.
	DecisionMalformed
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionNoOp:
		return "noop"
	case DecisionPublish:
		return "publish"
	case DecisionMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Reasons carried by Malformed decisions.
const (
	ReasonNoVersion    = "no version to publish"
	ReasonNoInProgress = "changelog must start with an in-progress section"
	ReasonNotSemver    = "release version is not semver-compliant"
	ReasonOldNotSemver = "released section is not semver-compliant"
	reasonPublished    = "already published"
)

// Decision is the outcome of reconciling a changelog with a manifest.
type Decision struct {
	Kind   DecisionKind
	Target *semver.Version
	Reason string
	// Downgrade is set on a Publish decision whose target sorts below the
	// recorded version.
	Downgrade bool
}

// Reconcile compares the newest released changelog section against the
// version recorded in the manifest. The first section must be titled
// exactly marker and every later one must carry a semantic version.
func Reconcile(doc changelog.Document, recordedVersion, marker string) Decision {
	if len(doc.Versions) < 2 {
		return Decision{Kind: DecisionMalformed, Reason: ReasonNoVersion}
	}
	if doc.InProgress(marker) == nil {
		return Decision{Kind: DecisionMalformed, Reason: ReasonNoInProgress}
	}

	candidate := doc.Versions[1].Version
	if candidate == nil {
		return Decision{Kind: DecisionMalformed, Reason: ReasonNotSemver}
	}
	// Every section after the in-progress one is a release.
	for _, entry := range doc.Versions[2:] {
		if !entry.HasVersion() {
			return Decision{Kind: DecisionMalformed, Reason: fmt.Sprintf("%s: %q", ReasonOldNotSemver, entry.Title)}
		}
	}

	recorded := strings.TrimPrefix(strings.TrimSpace(recordedVersion), "v")
	if candidate.String() == recorded {
		return Decision{Kind: DecisionNoOp, Target: candidate, Reason: reasonPublished}
	}

	d := Decision{Kind: DecisionPublish, Target: candidate}
	if current, err := semver.Parse(recorded); err == nil && candidate.LT(current) {
		d.Downgrade = true
	}
	return d
}
