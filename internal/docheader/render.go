package docheader

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"
)

const (
	fingerprintHashKeyLastmod = "lastmod"
	fingerprintHashKeyUID     = "uid"
)

// Render assembles the final document bytes: metadata header plus body.
//
// priorFields carries the previous document's frontmatter so fields Codesworth
// does not own (most importantly uid) survive the rewrite. A missing uid is
// assigned once and then kept stable for the document's lifetime. The content
// fingerprint is recomputed over the serialized fields and body; when it
// changes, lastmod is bumped to now (YYYY-MM-DD, UTC).
func Render(meta *Metadata, priorFields map[string]any, body []byte, now time.Time) ([]byte, error) {
	if meta == nil {
		return nil, fmt.Errorf("metadata is nil")
	}

	fields := map[string]any{}
	for k, v := range priorFields {
		fields[k] = v
	}
	fields[FieldKey] = meta.fieldsFor()

	if _, err := ensureUID(fields); err != nil {
		return nil, err
	}
	if _, _, err := upsertFingerprintAndMaybeLastmod(fields, body, now); err != nil {
		return nil, err
	}

	fm, err := SerializeYAML(fields, Style{Newline: "\n"})
	if err != nil {
		return nil, fmt.Errorf("serialize frontmatter: %w", err)
	}

	return Join(fm, body, Style{Newline: "\n"}), nil
}

// ensureUID assigns a uid only when the key is missing.
func ensureUID(fields map[string]any) (string, error) {
	if v, ok := fields[fingerprintHashKeyUID]; ok {
		return strings.TrimSpace(fmt.Sprint(v)), nil
	}
	uid := uuid.NewString()
	fields[fingerprintHashKeyUID] = uid
	return uid, nil
}

// ComputeContentFingerprint computes the canonical content fingerprint for a
// document, excluding the volatile fields (fingerprint itself, lastmod, uid).
func ComputeContentFingerprint(fields map[string]any, body []byte) (string, error) {
	fieldsForHash := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case mdfp.FingerprintField, fingerprintHashKeyLastmod, fingerprintHashKeyUID:
			continue
		}
		fieldsForHash[k] = v
	}

	frontmatterForHash := ""
	if len(fieldsForHash) > 0 {
		serialized, err := SerializeYAML(fieldsForHash, Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		frontmatterForHash = trimSingleTrailingNewline(string(serialized))
	}

	return mdfp.CalculateFingerprintFromParts(frontmatterForHash, string(body)), nil
}

func upsertFingerprintAndMaybeLastmod(fields map[string]any, body []byte, now time.Time) (fp string, changed bool, err error) {
	oldFP, _ := fields[mdfp.FingerprintField].(string)

	fp, err = ComputeContentFingerprint(fields, body)
	if err != nil {
		return "", false, err
	}

	if existing, ok := fields[mdfp.FingerprintField].(string); !ok || existing != fp {
		fields[mdfp.FingerprintField] = fp
		changed = true
	}

	if fp != "" && strings.TrimSpace(fp) != strings.TrimSpace(oldFP) {
		fields[fingerprintHashKeyLastmod] = now.UTC().Format("2006-01-02")
		changed = true
	}

	return fp, changed, nil
}

func trimSingleTrailingNewline(s string) string {
	if before, ok := strings.CutSuffix(s, "\r\n"); ok {
		return before
	}
	if before, ok := strings.CutSuffix(s, "\n"); ok {
		return before
	}
	return s
}
