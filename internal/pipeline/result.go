package pipeline

import (
	"time"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/detect"
)

// UnitStatus is the user-visible outcome for one documented unit.
type UnitStatus string

const (
	// StatusWritten means a new document was merged and written.
	StatusWritten UnitStatus = "written"
	// StatusSkipped means the unit was unchanged and its file untouched.
	StatusSkipped UnitStatus = "skipped"
	// StatusPlanned means a dry run determined the unit would be rewritten.
	StatusPlanned UnitStatus = "planned"
	// StatusFailed means this unit failed; other units are unaffected.
	StatusFailed UnitStatus = "failed"
)

// UnitResult is one unit's outcome within a run.
type UnitResult struct {
	Unit           string
	Status         UnitStatus
	Classification detect.Classification
	Reason         string
	Category       cerrors.Category
	Orphaned       []string
	Path           string
	Duration       time.Duration
}

// RunReport summarizes a documentation run. Per-unit failures are collected
// here, never aborting the run.
type RunReport struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []UnitResult
}

func (r *RunReport) count(status UnitStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Written returns the number of units whose documents were rewritten.
func (r *RunReport) Written() int { return r.count(StatusWritten) }

// Skipped returns the number of unchanged units.
func (r *RunReport) Skipped() int { return r.count(StatusSkipped) }

// Planned returns the number of units a dry run would rewrite.
func (r *RunReport) Planned() int { return r.count(StatusPlanned) }

// Failed returns the number of failed units.
func (r *RunReport) Failed() int { return r.count(StatusFailed) }

// HasFailures reports whether any unit failed.
func (r *RunReport) HasFailures() bool { return r.Failed() > 0 }

// FailuresByCategory counts failed units per error category.
func (r *RunReport) FailuresByCategory() map[cerrors.Category]int {
	out := map[cerrors.Category]int{}
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out[res.Category]++
		}
	}
	return out
}

// HasChanges reports whether any unit was (or would be) rewritten, used by
// the CI drift gate.
func (r *RunReport) HasChanges() bool { return r.Written()+r.Planned() > 0 }

// Orphaned returns all orphaned-block diagnostics across units.
func (r *RunReport) Orphaned() map[string][]string {
	out := map[string][]string{}
	for _, res := range r.Results {
		if len(res.Orphaned) > 0 {
			out[res.Unit] = res.Orphaned
		}
	}
	return out
}
