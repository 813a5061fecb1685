package parser

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/neural-chilli/codesworth/internal/config"
	"github.com/neural-chilli/codesworth/internal/docunit"
)

// Walker discovers documented units by walking the configured source
// directories and grouping parsed files into package units per directory.
type Walker struct {
	project  config.ProjectConfig
	parsing  config.ParsingConfig
	registry *Registry
}

// NewWalker builds a unit discoverer.
func NewWalker(project config.ProjectConfig, parsing config.ParsingConfig, registry *Registry) *Walker {
	return &Walker{project: project, parsing: parsing, registry: registry}
}

// Discover walks the source tree and returns package-level documented units,
// each owning its file sub-units, ordered by identity.
func (w *Walker) Discover(ctx context.Context) ([]*docunit.Unit, error) {
	type dirGroup struct {
		identity string
		language string
		files    []*docunit.Unit
		paths    []string
		failures []string
	}
	groups := map[string]*dirGroup{}
	group := func(identity, language string) *dirGroup {
		g, ok := groups[identity]
		if !ok {
			g = &dirGroup{identity: identity, language: language}
			groups[identity] = g
		}
		return g
	}

	for _, sourceDir := range w.project.SourceDirs {
		root := filepath.Clean(sourceDir)
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			if d.IsDir() {
				if p != root && w.ignored(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if w.ignored(d.Name()) || strings.HasSuffix(d.Name(), "_test.go") {
				return nil
			}

			langParser, ok := w.registry.ForPath(p)
			if !ok {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			if w.parsing.MaxFileSize > 0 && info.Size() > w.parsing.MaxFileSize {
				return nil
			}

			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			dirIdentity := w.dirIdentity(root, filepath.Dir(rel))
			fileIdentity := dirIdentity + "/" + strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
			g := group(dirIdentity, langParser.Language())
			g.paths = append(g.paths, p)

			// A file that cannot be read or parsed fails its unit, not the
			// walk. In daemon mode a half-typed file is the steady state; the
			// rest of the tree keeps getting documented.
			src, err := os.ReadFile(p)
			if err != nil {
				g.failures = append(g.failures, fmt.Sprintf("read %s: %v", p, err))
				return nil
			}

			fileUnit, err := langParser.Parse(fileIdentity, src)
			if err != nil {
				g.failures = append(g.failures, fmt.Sprintf("parse %s: %v", p, err))
				return nil
			}

			g.files = append(g.files, fileUnit)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	units := make([]*docunit.Unit, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.files, func(i, j int) bool { return g.files[i].Identity < g.files[j].Identity })

		pkg := &docunit.Unit{
			Identity:      g.identity,
			Name:          filepath.Base(filepath.FromSlash(g.identity)),
			Kind:          docunit.KindPackage,
			Language:      g.language,
			SubUnits:      g.files,
			SourcePaths:   g.paths,
			ParseFailures: g.failures,
		}
		// The first file-level doc comment becomes the package doc.
		for _, f := range g.files {
			if f.Doc != "" {
				pkg.Doc = f.Doc
				break
			}
		}
		units = append(units, pkg)
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Identity < units[j].Identity })
	return units, nil
}

// dirIdentity maps a directory (relative to its source root) onto a stable
// slash-separated unit identity. The root directory itself takes the source
// root's base name so its document does not collide with sub-packages.
func (w *Walker) dirIdentity(root, relDir string) string {
	base := filepath.Base(root)
	if base == "." || base == string(filepath.Separator) {
		base = "root"
	}
	if relDir == "." || relDir == "" {
		return filepath.ToSlash(base)
	}
	return filepath.ToSlash(filepath.Join(base, relDir))
}

func (w *Walker) ignored(name string) bool {
	for _, pattern := range w.project.IgnorePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
		if pattern == name {
			return true
		}
	}
	return false
}
