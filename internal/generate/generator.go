// Package generate produces fresh candidate document bodies for documented
// units. The merge engine treats generators as collaborators: it imposes no
// constraint on prose, only on protected-marker well-formedness.
package generate

import (
	"context"
	"time"

	"github.com/neural-chilli/codesworth/internal/docunit"
)

// Context carries run-scoped inputs a generator may use.
type Context struct {
	ProjectName string
	Commit      string
	Now         time.Time
}

// Generator produces a complete candidate document body for a unit,
// including default protected-span placeholders for the sections it wants to
// be user-editable.
type Generator interface {
	Generate(ctx context.Context, unit *docunit.Unit, gctx Context) (string, error)
	Name() string
}

// Default protected-section labels emitted by the built-in template. They are
// part of the document contract: a previous document's block with one of
// these labels is spliced back into the matching placeholder on regeneration.
const (
	LabelModuleOverview      = "module-overview"
	LabelImplementationNotes = "implementation-notes"
	LabelTestingStrategy     = "testing-strategy"
)
