package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strings"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/docunit"
)

// GoParser parses Go source files with the toolchain's own parser.
type GoParser struct{}

// NewGoParser returns a Go source parser.
func NewGoParser() *GoParser { return &GoParser{} }

func (p *GoParser) Language() string      { return "go" }
func (p *GoParser) Extensions() []string  { return []string{".go"} }

// Parse implements SourceParser.
func (p *GoParser) Parse(identity string, src []byte) (*docunit.Unit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, identity, src, parser.ParseComments)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.CategoryParse, "parse go source").
			WithContext("identity", identity).
			Build()
	}

	unit := &docunit.Unit{
		Identity: identity,
		Name:     path.Base(identity),
		Kind:     docunit.KindFile,
		Language: p.Language(),
	}
	if file.Doc != nil {
		unit.Doc = strings.TrimSpace(file.Doc.Text())
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			unit.Members = append(unit.Members, p.funcMember(fset, src, d))
		case *ast.GenDecl:
			unit.Members = append(unit.Members, p.genMembers(fset, src, d)...)
		}
	}

	return unit, nil
}

// PackageName returns the declared package name of a Go source file without a
// full parse, used to label package units.
func (p *GoParser) PackageName(src []byte) (string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.PackageClauseOnly)
	if err != nil {
		return "", fmt.Errorf("parse package clause: %w", err)
	}
	return file.Name.Name, nil
}

func (p *GoParser) funcMember(fset *token.FileSet, src []byte, d *ast.FuncDecl) docunit.Member {
	name := d.Name.Name
	kind := "func"
	if d.Recv != nil && len(d.Recv.List) > 0 {
		kind = "method"
		name = receiverTypeName(d.Recv.List[0].Type) + "." + name
	}

	// The signature is the declaration text up to the end of the function
	// type, excluding the body.
	sig := sliceSource(fset, src, d.Pos(), d.Type.End())

	return docunit.Member{
		Name:       name,
		Kind:       kind,
		Visibility: visibilityOf(d.Name.Name),
		Signature:  sig,
		Doc:        docText(d.Doc),
	}
}

func (p *GoParser) genMembers(fset *token.FileSet, src []byte, d *ast.GenDecl) []docunit.Member {
	var members []docunit.Member

	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			doc := docText(s.Doc)
			if doc == "" {
				doc = docText(d.Doc)
			}
			members = append(members, docunit.Member{
				Name:       s.Name.Name,
				Kind:       typeKind(s.Type),
				Visibility: visibilityOf(s.Name.Name),
				Signature:  "type " + sliceSource(fset, src, s.Pos(), s.End()),
				Doc:        doc,
			})
		case *ast.ValueSpec:
			kind := "var"
			if d.Tok == token.CONST {
				kind = "const"
			}
			doc := docText(s.Doc)
			if doc == "" {
				doc = docText(d.Doc)
			}
			sig := kind + " " + sliceSource(fset, src, s.Pos(), s.End())
			for _, name := range s.Names {
				if name.Name == "_" {
					continue
				}
				members = append(members, docunit.Member{
					Name:       name.Name,
					Kind:       kind,
					Visibility: visibilityOf(name.Name),
					Signature:  sig,
					Doc:        doc,
				})
			}
		}
	}

	return members
}

func typeKind(expr ast.Expr) string {
	switch expr.(type) {
	case *ast.StructType:
		return "struct"
	case *ast.InterfaceType:
		return "interface"
	default:
		return "type"
	}
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

func visibilityOf(name string) docunit.Visibility {
	if ast.IsExported(name) {
		return docunit.VisibilityPublic
	}
	return docunit.VisibilityPrivate
}

func docText(group *ast.CommentGroup) string {
	if group == nil {
		return ""
	}
	return strings.TrimSpace(group.Text())
}

// sliceSource extracts the literal source text between two token positions.
func sliceSource(fset *token.FileSet, src []byte, from, to token.Pos) string {
	start := fset.Position(from).Offset
	end := fset.Position(to).Offset
	if start < 0 || end > len(src) || start >= end {
		return ""
	}
	return strings.TrimSpace(string(src[start:end]))
}
