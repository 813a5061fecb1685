package generate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/docunit"
	"github.com/neural-chilli/codesworth/internal/protect"
)

// unitTemplate is the built-in document body template. Protected placeholders
// are emitted through the protect helper so the marker convention has a
// single source of truth.
const unitTemplate = `# {{ title .Unit }}

{{ protect "module-overview" (overviewSeed .Unit) }}

## API
{{ range .Unit.SubUnits }}
### {{ .Name }}
{{ range publicMembers . }}
#### {{ .Name }}

` + "```{{ $.Unit.Language }}\n{{ .Signature }}\n```" + `
{{ if .Doc }}
{{ .Doc }}
{{ end }}{{ end }}{{ with privateCount . }}
_{{ . }} unexported member{{ if ne . 1 }}s{{ end }} not shown._
{{ end }}{{ end }}
{{ protect "implementation-notes" "_Document non-obvious implementation decisions here._" }}

{{ protect "testing-strategy" "_Document how this unit is tested here._" }}
`

// TemplateGenerator renders document bodies from Go templates. A custom
// template directory may override the built-in unit template with a file
// named unit.md.tmpl.
type TemplateGenerator struct {
	tmpl *template.Template
}

// NewTemplateGenerator builds the default generator. templateDir may be empty.
func NewTemplateGenerator(templateDir string) (*TemplateGenerator, error) {
	text := unitTemplate
	if templateDir != "" {
		custom := filepath.Join(templateDir, "unit.md.tmpl")
		data, err := os.ReadFile(custom)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read template %s: %w", custom, err)
		}
		if err == nil {
			text = string(data)
		}
	}

	tmpl, err := template.New("unit").Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse unit template: %w", err)
	}
	return &TemplateGenerator{tmpl: tmpl}, nil
}

// Name implements Generator.
func (g *TemplateGenerator) Name() string { return "template" }

// Generate implements Generator.
func (g *TemplateGenerator) Generate(_ context.Context, unit *docunit.Unit, gctx Context) (string, error) {
	if unit == nil {
		return "", cerrors.New(cerrors.CategoryGenerate, "unit is nil").Build()
	}

	data := struct {
		Unit    *docunit.Unit
		Project string
		Commit  string
	}{Unit: unit, Project: gctx.ProjectName, Commit: gctx.Commit}

	var b strings.Builder
	if err := g.tmpl.Execute(&b, data); err != nil {
		return "", cerrors.Wrap(err, cerrors.CategoryGenerate, "render unit template").
			WithContext("unit", unit.Identity).
			Build()
	}
	return collapseBlankLines(b.String()), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"protect": func(label, seed string) string {
			return protect.Format(label, seed)
		},
		"title": func(u *docunit.Unit) string {
			switch u.Kind {
			case docunit.KindPackage:
				return "Package " + u.Name
			case docunit.KindModule:
				return "Module " + u.Name
			default:
				return u.Name
			}
		},
		"overviewSeed": func(u *docunit.Unit) string {
			if u.Doc != "" {
				return u.Doc
			}
			return "_Describe what `" + u.Identity + "` is for._"
		},
		"publicMembers": func(u *docunit.Unit) []docunit.Member {
			var out []docunit.Member
			for _, m := range u.Members {
				if m.Visibility == docunit.VisibilityPublic {
					out = append(out, m)
				}
			}
			return out
		},
		"privateCount": func(u *docunit.Unit) int {
			n := 0
			for _, m := range u.Members {
				if m.Visibility == docunit.VisibilityPrivate {
					n++
				}
			}
			return n
		},
	}
}

// collapseBlankLines squeezes runs of three or more newlines left behind by
// template conditionals down to a single blank line.
func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimLeft(s, "\n")
}
