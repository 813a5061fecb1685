package protect

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract_NoMarkers_ReturnsTextVerbatim(t *testing.T) {
	input := "# Title\n\nPlain prose.\n"

	skeleton, blocks, err := Extract(input)
	require.NoError(t, err)
	require.Empty(t, blocks)
	require.Equal(t, input, skeleton)
}

func TestExtract_SingleBlock_PreservesContentExactly(t *testing.T) {
	content := "My notes.\n\n  indented, trailing spaces  \n\ttabbed"
	input := "# Title\n\n<!-- PROTECTED: Architecture Decision -->\n" + content + "\n<!-- /PROTECTED -->\n\nafter\n"

	skeleton, blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	require.Equal(t, "architecture-decision", blocks[0].ID)
	require.Equal(t, "Architecture Decision", blocks[0].Label)
	require.Equal(t, content, blocks[0].Content)
	require.Equal(t, 3, blocks[0].StartLine)

	require.Equal(t, "# Title\n\n"+Placeholder("architecture-decision")+"\n\nafter\n", skeleton)
}

func TestExtract_CRLFContent_KeepsOriginalBytes(t *testing.T) {
	content := "line one\r\nline two"
	input := "# Title\r\n\r\n<!-- PROTECTED: notes -->\r\n" + content + "\r\n<!-- /PROTECTED -->\r\n"

	_, blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "notes", blocks[0].ID)
	require.Equal(t, content+"\r", blocks[0].Content)
}

func TestExtract_LabelNormalization(t *testing.T) {
	cases := map[string]string{
		"Architecture Decision":  "architecture-decision",
		"architecture-decision":  "architecture-decision",
		"ARCHITECTURE_DECISION":  "architecture-decision",
		"  spaced   out  label ": "spaced-out-label",
	}
	for label, want := range cases {
		require.Equal(t, want, NormalizeLabel(label), "label %q", label)
	}
}

func TestExtract_UnlabeledBlock_GetsContentDerivedID(t *testing.T) {
	input := "<!-- PROTECTED -->\nsome content\n<!-- /PROTECTED -->\n"

	_, blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.True(t, strings.HasPrefix(blocks[0].ID, "region-"))
	require.Len(t, blocks[0].ID, len("region-")+8)

	// Same content, same id: the id must be reproducible across runs.
	_, again, err := Extract(input)
	require.NoError(t, err)
	require.Equal(t, blocks[0].ID, again[0].ID)
}

func TestExtract_DuplicateLabels_KeepDocumentOrder(t *testing.T) {
	input := "<!-- PROTECTED: notes -->\nfirst\n<!-- /PROTECTED -->\nmiddle\n<!-- PROTECTED: notes -->\nsecond\n<!-- /PROTECTED -->\n"

	skeleton, blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, "notes", blocks[0].ID)
	require.Equal(t, "notes", blocks[1].ID)
	require.Equal(t, "first", blocks[0].Content)
	require.Equal(t, "second", blocks[1].Content)
	require.Equal(t, 0, blocks[0].Index)
	require.Equal(t, 1, blocks[1].Index)
	require.Equal(t, 2, strings.Count(skeleton, Placeholder("notes")))
}

func TestExtract_MissingClose_ReturnsUnbalancedError(t *testing.T) {
	input := "# Title\n<!-- PROTECTED: notes -->\ncontent\n"

	_, _, err := Extract(input)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnbalancedRegion))

	var re *RegionError
	require.True(t, errors.As(err, &re))
	require.Equal(t, 2, re.Line)
	require.Equal(t, "notes", re.Label)
}

func TestExtract_CloseWithoutOpen_ReturnsUnbalancedError(t *testing.T) {
	input := "content\n<!-- /PROTECTED -->\n"

	_, _, err := Extract(input)
	require.True(t, errors.Is(err, ErrUnbalancedRegion))
}

func TestExtract_NestedOpen_ReturnsNestedError(t *testing.T) {
	input := "<!-- PROTECTED: outer -->\n<!-- PROTECTED: inner -->\nx\n<!-- /PROTECTED -->\n<!-- /PROTECTED -->\n"

	_, _, err := Extract(input)
	require.True(t, errors.Is(err, ErrNestedRegion))
}

func TestExtract_MarkerWhitespaceVariants(t *testing.T) {
	input := "  <!--  PROTECTED:  notes  -->  \nx\n<!--/PROTECTED-->\n"

	_, blocks, err := Extract(input)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "notes", blocks[0].ID)
}

func TestExtract_MarkerInsideCodeSpanStillCounts(t *testing.T) {
	// The scanner is line-based on purpose: a marker alone on a line is a
	// marker even inside a fenced code block.
	input := "```\n<!-- PROTECTED: demo -->\n```\n"

	_, _, err := Extract(input)
	require.True(t, errors.Is(err, ErrUnbalancedRegion))
}

func TestFormat_RoundTripsThroughExtract(t *testing.T) {
	content := "keep me\nintact"
	doc := "before\n" + Format("My Label", content) + "\nafter\n"

	skeleton, blocks, err := Extract(doc)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "my-label", blocks[0].ID)
	require.Equal(t, content, blocks[0].Content)
	require.Contains(t, skeleton, Placeholder("my-label"))
}

func TestParsePlaceholder(t *testing.T) {
	id, ok := ParsePlaceholder(Placeholder("notes"))
	require.True(t, ok)
	require.Equal(t, "notes", id)

	_, ok = ParsePlaceholder("just a line")
	require.False(t, ok)
}

func TestHasMarkers(t *testing.T) {
	require.True(t, HasMarkers("x\n<!-- PROTECTED: a -->\n"))
	require.False(t, HasMarkers("plain\ntext\n"))
}
