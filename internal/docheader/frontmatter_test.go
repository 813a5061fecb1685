package docheader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\nkey: value\n# Title\n")

	_, _, had, _, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\nkey: value\r\n---\r\n# Title\r\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSerializeYAML_SortsKeysDeterministically(t *testing.T) {
	fields := map[string]any{"zeta": 1, "alpha": "x", "mid": true}

	a, err := SerializeYAML(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	b, err := SerializeYAML(fields, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Equal(t, a, b)

	parsed, err := ParseYAML(a)
	require.NoError(t, err)
	require.Equal(t, "x", parsed["alpha"])
	require.Equal(t, true, parsed["mid"])
}

func TestJoin_RebuildsSplittableDocument(t *testing.T) {
	fm := []byte("key: value\n")
	body := []byte("# Title\n")

	doc := Join(fm, body, Style{Newline: "\n"})
	gotFM, gotBody, had, _, err := Split(doc)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, fm, gotFM)
	require.Equal(t, body, gotBody)
}
