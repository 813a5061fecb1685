// Package validate checks documentation health without modifying anything.
// It is the read-only counterpart of a generation run: the same discovery
// and fingerprinting, but every divergence becomes a finding instead of a
// rewrite.
package validate

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/neural-chilli/codesworth/internal/detect"
	"github.com/neural-chilli/codesworth/internal/docheader"
	"github.com/neural-chilli/codesworth/internal/docunit"
	"github.com/neural-chilli/codesworth/internal/fingerprint"
	"github.com/neural-chilli/codesworth/internal/logfields"
	"github.com/neural-chilli/codesworth/internal/observability"
	"github.com/neural-chilli/codesworth/internal/protect"
	"github.com/neural-chilli/codesworth/internal/store"
)

// Level grades a finding.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Finding is one validation result for one document or unit.
type Finding struct {
	Level   Level
	Unit    string
	Path    string
	Rule    string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", f.Level, f.Rule, f.Unit, f.Message)
}

// Report aggregates findings for a validation pass.
type Report struct {
	Findings []Finding
}

func (r *Report) add(level Level, unit, path, rule, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{
		Level:   level,
		Unit:    unit,
		Path:    path,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	})
}

// Errors counts error-level findings.
func (r *Report) Errors() int {
	n := 0
	for _, f := range r.Findings {
		if f.Level == LevelError {
			n++
		}
	}
	return n
}

// Warnings counts warning-level findings.
func (r *Report) Warnings() int {
	return len(r.Findings) - r.Errors()
}

// HasErrors reports whether any error-level finding exists. With strict
// mode, warnings count too.
func (r *Report) HasErrors(strict bool) bool {
	if strict {
		return len(r.Findings) > 0
	}
	return r.Errors() > 0
}

// Validator checks documents against the current unit set.
type Validator struct {
	docsDir string
	docs    store.DocumentStore
	policy  docunit.OrderPolicy
	md      goldmark.Markdown
}

// New builds a validator over a docs directory.
func New(docsDir string, docs store.DocumentStore, policy docunit.OrderPolicy) *Validator {
	return &Validator{
		docsDir: docsDir,
		docs:    docs,
		policy:  policy,
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Validate runs every rule over the unit set and the docs directory.
func (v *Validator) Validate(ctx context.Context, units []*docunit.Unit) (*Report, error) {
	report := &Report{}
	known := make(map[string]bool, len(units))

	for _, unit := range units {
		known[unit.Identity] = true
		v.checkUnit(ctx, report, unit)
	}
	if err := v.checkOrphanDocuments(report, known); err != nil {
		return nil, err
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		if report.Findings[i].Unit != report.Findings[j].Unit {
			return report.Findings[i].Unit < report.Findings[j].Unit
		}
		return report.Findings[i].Rule < report.Findings[j].Rule
	})

	observability.InfoContext(ctx, "validation finished",
		logfields.Status("done"),
		logfields.Blocks(len(report.Findings)))
	return report, nil
}

func (v *Validator) checkUnit(ctx context.Context, report *Report, unit *docunit.Unit) {
	path := v.docs.Path(unit.Identity)

	content, ok, err := v.docs.Read(unit.Identity)
	if err != nil {
		report.add(LevelError, unit.Identity, path, "read", "cannot read document: %v", err)
		return
	}
	if !ok {
		report.add(LevelWarning, unit.Identity, path, "missing-doc", "unit has no document; run generate")
		return
	}

	meta, _, body, err := docheader.Parse(content)
	if err != nil {
		report.add(LevelError, unit.Identity, path, "header", "metadata header is malformed: %v", err)
		return
	}

	bodyBlocks := v.checkMarkers(report, unit.Identity, path, body)

	if meta == nil {
		report.add(LevelWarning, unit.Identity, path, "header", "document has no codesworth metadata; it will be treated as new")
		return
	}

	v.checkFreshness(report, unit, path, meta)
	v.checkProtectedList(report, unit.Identity, path, meta, bodyBlocks)
	v.checkStructure(report, unit.Identity, path, body)
}

// checkMarkers verifies the marker grammar and returns the block identifiers
// found in the body, in document order.
func (v *Validator) checkMarkers(report *Report, unit, path string, body []byte) []string {
	_, blocks, err := protect.Extract(string(body))
	if err != nil {
		report.add(LevelError, unit, path, "markers", "protected markers are unbalanced or nested: %v", err)
		return nil
	}
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}
	return ids
}

// checkFreshness recomputes the unit fingerprint and compares it with the
// one stored at last generation.
func (v *Validator) checkFreshness(report *Report, unit *docunit.Unit, path string, meta *docheader.Metadata) {
	fp, err := fingerprint.Compute(unit, v.policy)
	if err != nil {
		report.add(LevelError, unit.Identity, path, "fingerprint", "cannot fingerprint unit: %v", err)
		return
	}
	if detect.Classify(fp, meta) == detect.Changed {
		report.add(LevelWarning, unit.Identity, path, "stale",
			"source changed since last generation (stored %s, current %s)",
			short(meta.SourceFingerprint.String()), short(fp.String()))
	}
}

// checkProtectedList cross-checks the metadata's protected list against the
// blocks actually present in the body.
func (v *Validator) checkProtectedList(report *Report, unit, path string, meta *docheader.Metadata, bodyIDs []string) {
	if bodyIDs == nil {
		return
	}
	inBody := make(map[string]bool, len(bodyIDs))
	for _, id := range bodyIDs {
		inBody[id] = true
	}
	listed := make(map[string]bool, len(meta.Protected))
	for _, id := range meta.Protected {
		listed[id] = true
		if !inBody[id] {
			report.add(LevelError, unit, path, "protected-list",
				"metadata lists protected block %q but the body has no such block", id)
		}
	}
	for _, id := range bodyIDs {
		if !listed[id] {
			report.add(LevelWarning, unit, path, "protected-list",
				"body contains protected block %q not listed in metadata", id)
		}
	}
}

// checkStructure parses the body as markdown and requires at least a
// document title.
func (v *Validator) checkStructure(report *Report, unit, path string, body []byte) {
	doc := v.md.Parser().Parse(text.NewReader(body))
	hasHeading := false
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if _, ok := node.(*ast.Heading); ok {
			hasHeading = true
			break
		}
	}
	if !hasHeading {
		report.add(LevelWarning, unit, path, "structure", "document body has no heading")
	}
}

// checkOrphanDocuments flags documents on disk that no current unit claims.
func (v *Validator) checkOrphanDocuments(report *Report, known map[string]bool) error {
	return filepath.WalkDir(v.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				// Docs directory does not exist yet; nothing to flag.
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(v.docsDir, path)
		if err != nil {
			return err
		}
		identity := filepath.ToSlash(strings.TrimSuffix(rel, ".md"))
		if !known[identity] {
			report.add(LevelWarning, identity, path, "orphan-doc",
				"document has no matching source unit")
		}
		return nil
	})
}

func short(fp string) string {
	const prefix = "sha256:"
	s := strings.TrimPrefix(fp, prefix)
	if len(s) > 12 {
		s = s[:12]
	}
	return s
}
