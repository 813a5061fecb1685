package protect

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sentinel errors for malformed marker structure. Both are fatal for the
// affected unit only; the merge engine leaves the previous document untouched.
var (
	ErrUnbalancedRegion = errors.New("unbalanced protected region")
	ErrNestedRegion     = errors.New("nested protected region")
)

// RegionError reports a marker structure violation with its location.
type RegionError struct {
	Err   error
	Line  int
	Label string
}

func (e *RegionError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%v: marker %q at line %d", e.Err, e.Label, e.Line)
	}
	return fmt.Sprintf("%v: marker at line %d", e.Err, e.Line)
}

func (e *RegionError) Unwrap() error { return e.Err }

var (
	openMarkerRe  = regexp.MustCompile(`^\s*<!--\s*PROTECTED(?::\s*(.*?))?\s*-->\s*$`)
	closeMarkerRe = regexp.MustCompile(`^\s*<!--\s*/PROTECTED\s*-->\s*$`)

	placeholderRe = regexp.MustCompile(`^\[\[protected:([^\]]+)\]\]$`)
)

// Placeholder returns the skeleton placeholder line for a block identifier.
func Placeholder(id string) string {
	return "[[protected:" + id + "]]"
}

// ParsePlaceholder extracts the block identifier from a skeleton line,
// reporting whether the line is a placeholder.
func ParsePlaceholder(line string) (string, bool) {
	m := placeholderRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Extract scans document text for protected spans.
//
// It returns the skeleton (original text with each span, markers inclusive,
// replaced by a single placeholder line carrying the block identifier) and
// the ordered sequence of extracted blocks.
//
// The scanner is a two-state machine: outside-protected and inside-protected.
// An open marker while inside is ErrNestedRegion; an open marker with no
// close before end of document is ErrUnbalancedRegion. A close marker while
// outside is also ErrUnbalancedRegion.
func Extract(text string) (skeleton string, blocks []Block, err error) {
	lines := splitLines(text)

	var out []string
	var content []string
	var openLabel string
	openLine := 0
	inside := false

	for i, line := range lines {
		lineNo := i + 1

		if m := openMarkerRe.FindStringSubmatch(line); m != nil {
			if inside {
				return "", nil, &RegionError{Err: ErrNestedRegion, Line: lineNo, Label: strings.TrimSpace(m[1])}
			}
			inside = true
			openLabel = strings.TrimSpace(m[1])
			openLine = lineNo
			content = content[:0]
			continue
		}

		if closeMarkerRe.MatchString(line) {
			if !inside {
				return "", nil, &RegionError{Err: ErrUnbalancedRegion, Line: lineNo}
			}
			inside = false

			body := strings.Join(content, "\n")
			id := NormalizeLabel(openLabel)
			if id == "" {
				id = contentID(body)
			}
			blocks = append(blocks, Block{
				ID:        id,
				Label:     openLabel,
				Content:   body,
				Index:     len(blocks),
				StartLine: openLine,
				EndLine:   lineNo,
			})
			out = append(out, Placeholder(id))
			continue
		}

		if inside {
			content = append(content, line)
		} else {
			out = append(out, line)
		}
	}

	if inside {
		return "", nil, &RegionError{Err: ErrUnbalancedRegion, Line: openLine, Label: openLabel}
	}

	return joinLines(out, strings.HasSuffix(text, "\n")), blocks, nil
}

// HasMarkers reports whether text contains any protected open marker.
func HasMarkers(text string) bool {
	for _, line := range splitLines(text) {
		if openMarkerRe.MatchString(line) {
			return true
		}
	}
	return false
}

// splitLines splits on "\n" only. A "\r" before the newline stays part of
// the line: marker detection tolerates it (the marker patterns end in \s*$)
// while extracted content keeps the document's original bytes, so CRLF-edited
// protected regions survive a merge unmodified.
func splitLines(text string) []string {
	trimmed := strings.TrimSuffix(text, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func joinLines(lines []string, trailingNewline bool) string {
	joined := strings.Join(lines, "\n")
	if trailingNewline && joined != "" {
		joined += "\n"
	}
	return joined
}
