// Package merge combines freshly generated document bodies with protected
// spans harvested from the previous document, producing the final text and
// updated metadata.
//
// The central invariant: human-authored protected content wins,
// unconditionally. A previous block whose identifier still has a placeholder
// in the fresh skeleton is spliced back verbatim; one that does not is
// appended under a "Preserved Content" section, never deleted.
package merge

import (
	"strings"
	"time"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/docheader"
	"github.com/neural-chilli/codesworth/internal/docunit"
	"github.com/neural-chilli/codesworth/internal/fingerprint"
	"github.com/neural-chilli/codesworth/internal/protect"
)

// OrphanHeading introduces the section holding blocks the generator no longer
// places. The heading text is part of the persisted format; changing it would
// orphan previously orphaned content a second time.
const OrphanHeading = "## Preserved Content (no longer auto-placed)"

// Result is the outcome of merging one unit's document.
type Result struct {
	// Body is the merged document body, without the metadata header.
	Body []byte

	// Metadata is the updated header record for the merged document.
	Metadata docheader.Metadata

	// Orphaned lists identifiers of blocks that lost their placeholder and
	// were moved to the preserved-content section. Never silently dropped:
	// callers surface this list to the user.
	Orphaned []string
}

// Options carries run-scoped inputs into a merge.
type Options struct {
	Now    time.Time
	Commit string
	Dirty  bool
}

// Merge combines a fresh generator body with the previous document for the
// same unit.
//
// previous is the complete prior document (header included), or nil when no
// prior document exists. Marker-structure errors in either input are fatal
// for this unit only; the caller must leave the existing file untouched.
func Merge(freshBody string, previous []byte, unit *docunit.Unit, fp fingerprint.Fingerprint, opts Options) (*Result, error) {
	if unit == nil {
		return nil, cerrors.New(cerrors.CategoryMerge, "unit is nil").Build()
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	meta := docheader.Metadata{
		Unit:              unit.Identity,
		SourceFingerprint: fp,
		Generated:         now,
		Commit:            opts.Commit,
		Dirty:             opts.Dirty,
	}

	// The generator owns marker well-formedness of its own output; a
	// violation is surfaced here before anything is written.
	freshSkeleton, freshBlocks, err := protect.Extract(freshBody)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.CategoryExtract, "generated body has malformed protected markers").
			WithContext("unit", unit.Identity).
			Build()
	}

	if previous == nil {
		return &Result{
			Body:     []byte(ensureTrailingNewline(freshBody)),
			Metadata: meta,
		}, nil
	}

	_, _, prevBody, err := docheader.Parse(previous)
	if err != nil {
		// A header we cannot split means we cannot trust any span positions.
		return nil, cerrors.Wrap(err, cerrors.CategoryMerge, "previous document header is malformed").
			WithContext("unit", unit.Identity).
			Build()
	}

	_, prevBlocks, err := protect.Extract(string(prevBody))
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.CategoryExtract, "previous document has malformed protected markers").
			WithContext("unit", unit.Identity).
			Build()
	}

	body, placed, orphaned := splice(freshSkeleton, freshBlocks, prevBlocks)

	meta.Protected = append(placed, orphanIDs(orphaned)...)

	return &Result{
		Body:     []byte(body),
		Metadata: meta,
		Orphaned: orphanIDs(orphaned),
	}, nil
}

// splice rebuilds the document from the fresh skeleton, substituting previous
// block content wherever an identifier matches, and appends unmatched
// previous blocks under the orphan heading.
func splice(freshSkeleton string, freshBlocks []protect.Block, prevBlocks []protect.Block) (body string, placedIDs []string, orphaned []protect.Block) {
	// Duplicate identifiers match in document order: the first previous block
	// with an id fills the first placeholder carrying that id.
	prevByID := make(map[string][]protect.Block, len(prevBlocks))
	for _, b := range prevBlocks {
		prevByID[b.ID] = append(prevByID[b.ID], b)
	}
	consumed := make([]bool, len(prevBlocks))

	// Pair placeholders with fresh blocks by identifier, not position. A line
	// that merely looks like a placeholder (generator prose the extractor
	// never produced) has no fresh block behind it and passes through as-is.
	freshByID := make(map[string][]protect.Block, len(freshBlocks))
	for _, b := range freshBlocks {
		freshByID[b.ID] = append(freshByID[b.ID], b)
	}

	var out []string
	for _, line := range strings.Split(strings.TrimSuffix(freshSkeleton, "\n"), "\n") {
		id, ok := protect.ParsePlaceholder(line)
		if !ok {
			out = append(out, line)
			continue
		}

		queue := freshByID[id]
		if len(queue) == 0 {
			out = append(out, line)
			continue
		}
		fresh := queue[0]
		freshByID[id] = queue[1:]

		content := fresh.Content
		label := fresh.Label
		if queue := prevByID[id]; len(queue) > 0 {
			prev := queue[0]
			prevByID[id] = queue[1:]
			consumed[prev.Index] = true
			content = prev.Content
			if prev.Label != "" {
				label = prev.Label
			}
		}

		out = append(out, protect.Format(label, content))
		placedIDs = append(placedIDs, id)
	}

	for _, b := range prevBlocks {
		if !consumed[b.Index] {
			orphaned = append(orphaned, b)
		}
	}

	body = strings.Join(out, "\n")
	if len(orphaned) > 0 {
		body = appendOrphans(body, orphaned)
	}
	return ensureTrailingNewline(body), placedIDs, orphaned
}

func appendOrphans(body string, orphaned []protect.Block) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n\n")
	b.WriteString(OrphanHeading)
	b.WriteString("\n")
	for _, block := range orphaned {
		b.WriteString("\n")
		label := block.Label
		if label == "" {
			label = block.ID
		}
		b.WriteString(protect.Format(label, block.Content))
		b.WriteString("\n")
	}
	return b.String()
}

func orphanIDs(orphaned []protect.Block) []string {
	if len(orphaned) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orphaned))
	for _, b := range orphaned {
		ids = append(ids, b.ID)
	}
	return ids
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
