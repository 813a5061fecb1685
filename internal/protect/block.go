// Package protect recognizes human-protected spans in generated documents.
//
// A protected span is delimited by paired HTML-comment marker lines:
//
//	<!-- PROTECTED: Some Label -->
//	...human-authored content, preserved byte-for-byte...
//	<!-- /PROTECTED -->
//
// Extraction replaces each span with a placeholder token so the merge engine
// can splice content back into exactly the right position.
package protect

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Block is one extracted protected span.
type Block struct {
	// ID is the normalized identifier derived from the label, or a
	// content-derived "region-<hash>" id when the label was never set.
	ID string

	// Label is the raw label text from the open marker, if any.
	Label string

	// Content is the literal text between the markers, markers excluded,
	// without a trailing newline.
	Content string

	// Index is the ordinal position of the block within the document,
	// disambiguating blocks whose label was duplicated or never set.
	Index int

	// StartLine and EndLine are the 1-based marker line numbers.
	StartLine int
	EndLine   int
}

var labelFolder = cases.Fold()

// NormalizeLabel converts a free-text marker label into a stable identifier:
// Unicode case folding, with runs of whitespace, underscores, and hyphens
// collapsed to a single hyphen. "Architecture Decision" and
// "architecture-decision" normalize to the same identifier.
func NormalizeLabel(label string) string {
	folded := labelFolder.String(strings.TrimSpace(label))
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(fields, "-")
}

// contentID derives a stable identifier for an unlabeled block from its content.
func contentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return "region-" + hex.EncodeToString(sum[:])[:8]
}

// Format wraps content in protected markers. The generator's default
// placeholders and the merge engine's orphan section both go through here so
// the marker convention has a single producer.
func Format(label, content string) string {
	var b strings.Builder
	b.WriteString(OpenMarker(label))
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(CloseMarker)
	return b.String()
}

// OpenMarker returns the open marker line for a label (label may be empty).
func OpenMarker(label string) string {
	if strings.TrimSpace(label) == "" {
		return "<!-- PROTECTED -->"
	}
	return "<!-- PROTECTED: " + strings.TrimSpace(label) + " -->"
}

// CloseMarker is the literal close marker line.
const CloseMarker = "<!-- /PROTECTED -->"
