// Package parser turns source text into documented-unit structural summaries.
//
// The core engine never branches on language identity: each language is one
// SourceParser implementation behind the capability interface, selected by
// file extension through the Registry.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/neural-chilli/codesworth/internal/docunit"
)

// SourceParser produces a file-level documented unit from source text.
type SourceParser interface {
	// Parse builds the structural summary for one source file. identity is
	// the slash-separated unit identity the file unit should carry.
	Parse(identity string, src []byte) (*docunit.Unit, error)

	// Extensions returns the file extensions (with dot) this parser handles.
	Extensions() []string

	// Language returns the language name used in unit summaries.
	Language() string
}

// Registry maps file extensions onto language parsers.
type Registry struct {
	byExt map[string]SourceParser
}

// NewRegistry builds a registry for the configured languages.
// Unknown language names are an error so config typos surface immediately.
func NewRegistry(languages []string) (*Registry, error) {
	r := &Registry{byExt: map[string]SourceParser{}}
	for _, lang := range languages {
		switch strings.ToLower(lang) {
		case "go":
			r.Register(NewGoParser())
		default:
			return nil, fmt.Errorf("unsupported language %q", lang)
		}
	}
	return r, nil
}

// Register adds a parser, claiming its extensions.
func (r *Registry) Register(p SourceParser) {
	for _, ext := range p.Extensions() {
		r.byExt[ext] = p
	}
}

// ForPath returns the parser responsible for a file path, if any.
func (r *Registry) ForPath(path string) (SourceParser, bool) {
	p, ok := r.byExt[filepath.Ext(path)]
	return p, ok
}
