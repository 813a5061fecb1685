package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neural-chilli/codesworth/internal/docunit"
)

const goSource = `// Package widget renders widgets.
package widget

// DefaultSize is the fallback edge length.
const DefaultSize = 16

var registry = map[string]bool{}

// Widget draws itself.
type Widget struct {
	Size int
}

// Renderer turns widgets into pixels.
type Renderer interface {
	Render(w *Widget) error
}

// New builds a widget with the default size.
func New() *Widget {
	return &Widget{Size: DefaultSize}
}

// Resize sets the edge length.
func (w *Widget) Resize(size int) {
	w.Size = size
}

func internalHelper() {}
`

func memberByName(t *testing.T, unit *docunit.Unit, name string) docunit.Member {
	t.Helper()
	for _, m := range unit.Members {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("member %q not found", name)
	return docunit.Member{}
}

func TestGoParser_ExtractsDeclarations(t *testing.T) {
	p := NewGoParser()

	unit, err := p.Parse("widget/widget", []byte(goSource))
	require.NoError(t, err)

	require.Equal(t, "widget/widget", unit.Identity)
	require.Equal(t, docunit.KindFile, unit.Kind)
	require.Equal(t, "go", unit.Language)
	require.Equal(t, "Package widget renders widgets.", unit.Doc)

	w := memberByName(t, unit, "Widget")
	require.Equal(t, "struct", w.Kind)
	require.Equal(t, docunit.VisibilityPublic, w.Visibility)
	require.Equal(t, "Widget draws itself.", w.Doc)

	r := memberByName(t, unit, "Renderer")
	require.Equal(t, "interface", r.Kind)

	c := memberByName(t, unit, "DefaultSize")
	require.Equal(t, "const", c.Kind)

	v := memberByName(t, unit, "registry")
	require.Equal(t, "var", v.Kind)
	require.Equal(t, docunit.VisibilityPrivate, v.Visibility)
}

func TestGoParser_MethodsUseReceiverQualifiedNames(t *testing.T) {
	p := NewGoParser()

	unit, err := p.Parse("widget/widget", []byte(goSource))
	require.NoError(t, err)

	m := memberByName(t, unit, "Widget.Resize")
	require.Equal(t, "method", m.Kind)
	require.Equal(t, docunit.VisibilityPublic, m.Visibility)
	require.Equal(t, "func (w *Widget) Resize(size int)", m.Signature)

	n := memberByName(t, unit, "New")
	require.Equal(t, "func", n.Kind)
	require.Equal(t, "func New() *Widget", n.Signature)
}

func TestGoParser_SignatureExcludesBody(t *testing.T) {
	p := NewGoParser()

	unit, err := p.Parse("widget/widget", []byte(goSource))
	require.NoError(t, err)

	h := memberByName(t, unit, "internalHelper")
	require.Equal(t, docunit.VisibilityPrivate, h.Visibility)
	require.NotContains(t, h.Signature, "{")
}

func TestGoParser_SyntaxError_ReturnsError(t *testing.T) {
	p := NewGoParser()

	_, err := p.Parse("broken/broken", []byte("package broken\nfunc {"))
	require.Error(t, err)
}

func TestRegistry_UnknownLanguage_Fails(t *testing.T) {
	_, err := NewRegistry([]string{"go", "cobol"})
	require.Error(t, err)
}

func TestRegistry_ForPath(t *testing.T) {
	reg, err := NewRegistry([]string{"go"})
	require.NoError(t, err)

	p, ok := reg.ForPath("internal/widget/widget.go")
	require.True(t, ok)
	require.Equal(t, "go", p.Language())

	_, ok = reg.ForPath("README.md")
	require.False(t, ok)
}
