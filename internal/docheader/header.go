// Package docheader reads and writes the metadata header persisted at the top
// of every generated document, encoded as `---` delimited YAML frontmatter.
//
// Codesworth's own fields live under a nested `codesworth:` mapping. Three
// conventional top-level fields accompany them: `fingerprint` (content
// fingerprint of the written document), `uid` (stable document identity) and
// `lastmod` (bumped whenever the content fingerprint changes).
package docheader

import (
	"fmt"
	"time"

	"github.com/neural-chilli/codesworth/internal/fingerprint"
)

const (
	// FieldKey is the top-level frontmatter key holding Codesworth metadata.
	FieldKey = "codesworth"

	keyUnit        = "unit"
	keyFingerprint = "source_fingerprint"
	keyGenerated   = "generated"
	keyProtected   = "protected"
	keyCommit      = "commit"
	keyDirty       = "dirty"

	generatedLayout = time.RFC3339
)

// Metadata is the structured record persisted in a document's header.
type Metadata struct {
	// Unit is the documented unit's stable identity.
	Unit string

	// SourceFingerprint is the fingerprint of the unit's structural summary
	// at the time the document was written.
	SourceFingerprint fingerprint.Fingerprint

	// Generated is the last-updated timestamp.
	Generated time.Time

	// Protected lists the protected-block identifiers known to exist in the
	// document, in document order.
	Protected []string

	// Commit and Dirty describe the source worktree at generation time, when
	// it is a git repository.
	Commit string
	Dirty  bool
}

// Parse extracts Codesworth metadata from document content.
//
// It returns the metadata (nil if the document has no parseable Codesworth
// header), the complete frontmatter field map (for preserving foreign fields
// such as uid on rewrite), and the document body.
func Parse(content []byte) (*Metadata, map[string]any, []byte, error) {
	fm, body, had, _, err := Split(content)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("split frontmatter: %w", err)
	}
	if !had {
		return nil, map[string]any{}, body, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	raw, ok := fields[FieldKey].(map[string]any)
	if !ok {
		return nil, fields, body, nil
	}

	meta := &Metadata{
		Unit:              stringField(raw, keyUnit),
		SourceFingerprint: fingerprint.Fingerprint(stringField(raw, keyFingerprint)),
		Commit:            stringField(raw, keyCommit),
	}
	if d, ok := raw[keyDirty].(bool); ok {
		meta.Dirty = d
	}
	if ts := stringField(raw, keyGenerated); ts != "" {
		if t, err := time.Parse(generatedLayout, ts); err == nil {
			meta.Generated = t
		}
	}
	meta.Protected = stringSliceField(raw, keyProtected)

	return meta, fields, body, nil
}

// fieldsFor converts metadata into its frontmatter representation.
func (m *Metadata) fieldsFor() map[string]any {
	raw := map[string]any{
		keyUnit:        m.Unit,
		keyFingerprint: m.SourceFingerprint.String(),
		keyGenerated:   m.Generated.UTC().Format(generatedLayout),
	}
	if len(m.Protected) > 0 {
		raw[keyProtected] = m.Protected
	}
	if m.Commit != "" {
		raw[keyCommit] = m.Commit
		raw[keyDirty] = m.Dirty
	}
	return raw
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceField(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
