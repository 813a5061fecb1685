// Package preview serves the generated documentation over HTTP for local
// review. It renders markdown on request, so edits made between runs show
// up on refresh without a rebuild step.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"

	"github.com/neural-chilli/codesworth/internal/docheader"
	"github.com/neural-chilli/codesworth/internal/logfields"
	"github.com/neural-chilli/codesworth/internal/observability"
)

// Server renders and serves a docs directory.
type Server struct {
	docsDir string
	title   string
	md      goldmark.Markdown
	httpSrv *http.Server
}

// NewServer builds a preview server for docsDir. title names the project in
// the index page.
func NewServer(docsDir, title string) *Server {
	s := &Server{
		docsDir: docsDir,
		title:   title,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/doc/", s.handleDocument)
	s.httpSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("preview listen on %s: %w", addr, err)
	}
	observability.InfoContext(ctx, "preview server listening", logfields.Path(ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

type indexEntry struct {
	Identity string
	Title    string
	Updated  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	entries, err := s.collectEntries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTemplate.Execute(w, map[string]any{
		"Title":   s.title,
		"Entries": entries,
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	identity := strings.TrimPrefix(r.URL.Path, "/doc/")
	identity = path.Clean("/" + identity)[1:]
	if identity == "" || strings.Contains(identity, "..") {
		http.NotFound(w, r)
		return
	}

	content, err := readDoc(s.docsDir, identity)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	_, _, body, err := docheader.Parse(content)
	if err != nil {
		// Serve the raw file when the header is unparseable; preview must
		// never hide a broken document.
		body = content
	}

	var rendered bytes.Buffer
	if err := s.md.Convert(body, &rendered); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = pageTemplate.Execute(w, map[string]any{
		"Title": identity,
		"Body":  template.HTML(rendered.String()),
	})
}

// collectEntries walks the docs directory and builds the index listing,
// using each rendered document's first heading as its display title.
func (s *Server) collectEntries() ([]indexEntry, error) {
	var entries []indexEntry
	err := filepath.WalkDir(s.docsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.docsDir, p)
		if err != nil {
			return err
		}
		identity := filepath.ToSlash(strings.TrimSuffix(rel, ".md"))

		entry := indexEntry{Identity: identity, Title: identity}
		if content, rerr := readDoc(s.docsDir, identity); rerr == nil {
			meta, _, body, perr := docheader.Parse(content)
			if perr == nil {
				if title := s.extractTitle(body); title != "" {
					entry.Title = title
				}
				if meta != nil && !meta.Generated.IsZero() {
					entry.Updated = meta.Generated.UTC().Format("2006-01-02")
				}
			}
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Identity < entries[j].Identity })
	return entries, nil
}

// extractTitle renders the body and pulls the text of the first h1.
func (s *Server) extractTitle(body []byte) string {
	var rendered bytes.Buffer
	if err := s.md.Convert(body, &rendered); err != nil {
		return ""
	}
	root, err := xhtml.Parse(&rendered)
	if err != nil {
		return ""
	}
	var h1 *xhtml.Node
	var find func(*xhtml.Node)
	find = func(n *xhtml.Node) {
		if h1 != nil {
			return
		}
		if n.Type == xhtml.ElementNode && n.Data == "h1" {
			h1 = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)
	if h1 == nil {
		return ""
	}
	var sb strings.Builder
	var collect func(*xhtml.Node)
	collect = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(h1)
	return strings.TrimSpace(sb.String())
}

func readDoc(dir, identity string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, filepath.FromSlash(identity)+".md"))
}
