package preview

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neural-chilli/codesworth/internal/docheader"
	"github.com/neural-chilli/codesworth/internal/fingerprint"
)

func writeDoc(t *testing.T, dir, identity, body string) {
	t.Helper()
	meta := &docheader.Metadata{
		Unit:              identity,
		SourceFingerprint: fingerprint.Fingerprint("sha256:0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"),
		Generated:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	doc, err := docheader.Render(meta, nil, []byte(body), meta.Generated)
	require.NoError(t, err)

	path := filepath.Join(dir, filepath.FromSlash(identity)+".md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, doc, 0o644))
}

func TestHandleIndex_ListsDocumentsWithTitles(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "demo/alpha", "# Package alpha\n\nprose\n")
	writeDoc(t, dir, "demo/beta", "# Package beta\n\nprose\n")

	s := NewServer(dir, "demo")
	rec := httptest.NewRecorder()
	s.handleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	require.Contains(t, html, "Package alpha")
	require.Contains(t, html, "Package beta")
	require.Contains(t, html, `href="/doc/demo/alpha"`)
	require.Contains(t, html, "2025-06-01")
}

func TestHandleDocument_RendersMarkdownBody(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "demo/alpha", "# Package alpha\n\nSome **bold** prose.\n")

	s := NewServer(dir, "demo")
	rec := httptest.NewRecorder()
	s.handleDocument(rec, httptest.NewRequest(http.MethodGet, "/doc/demo/alpha", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	require.Contains(t, html, "<h1")
	require.Contains(t, html, "<strong>bold</strong>")
	// The metadata header is not part of the rendered page.
	require.NotContains(t, html, "source_fingerprint")
}

func TestHandleDocument_UnknownPath_Is404(t *testing.T) {
	s := NewServer(t.TempDir(), "demo")
	rec := httptest.NewRecorder()
	s.handleDocument(rec, httptest.NewRequest(http.MethodGet, "/doc/never/seen", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDocument_RejectsTraversal(t *testing.T) {
	s := NewServer(t.TempDir(), "demo")
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodGet, "/doc/x", nil)
	req.URL.Path = "/doc/../../etc/passwd"
	s.handleDocument(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExtractTitle_UsesFirstH1(t *testing.T) {
	s := NewServer(t.TempDir(), "demo")

	require.Equal(t, "Package alpha", s.extractTitle([]byte("# Package alpha\n\nprose\n")))
	require.Equal(t, "", s.extractTitle([]byte("no heading here\n")))
}
