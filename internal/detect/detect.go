// Package detect classifies documented units against their previously
// recorded fingerprint. The classification is the sole gate for invoking the
// content generator: Unchanged units are skipped entirely.
package detect

import (
	"github.com/neural-chilli/codesworth/internal/docheader"
	"github.com/neural-chilli/codesworth/internal/fingerprint"
)

// Classification is the regeneration decision for one unit.
type Classification int

const (
	// New means no prior metadata exists for the unit's identity.
	New Classification = iota
	// Unchanged means the stored fingerprint equals the current one.
	Unchanged
	// Changed means prior metadata exists but the fingerprint differs.
	Changed
)

func (c Classification) String() string {
	switch c {
	case New:
		return "new"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Classify compares the current fingerprint against prior metadata.
//
// The comparison is exact, never heuristic. A missing or malformed stored
// fingerprint classifies as Changed: a spurious regeneration costs time,
// while a missed one is a correctness bug, so ambiguity errs toward Changed.
func Classify(current fingerprint.Fingerprint, prior *docheader.Metadata) Classification {
	if prior == nil {
		return New
	}
	if !prior.SourceFingerprint.Valid() {
		return Changed
	}
	if prior.SourceFingerprint == current {
		return Unchanged
	}
	return Changed
}
