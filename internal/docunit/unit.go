// Package docunit defines the structural summary of a documented source
// grouping. Units are produced fresh on every run by a language parser and
// are never persisted; only their fingerprint survives in document metadata.
package docunit

// Kind is the granularity of a documented unit.
type Kind string

const (
	KindFile    Kind = "file"
	KindModule  Kind = "module"
	KindPackage Kind = "package"
)

// Visibility of a declared member.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Member is one declared item in a unit: a function, type, constant group, etc.
type Member struct {
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Visibility Visibility `json:"visibility"`
	Signature  string     `json:"signature,omitempty"`
	Doc        string     `json:"doc,omitempty"`
}

// Unit is the structural summary of one documented source grouping.
//
// Identity is a stable, slash-separated path-like name (e.g. "internal/protect")
// used both as the document store key and in log output. A package unit owns
// zero or more file sub-units.
type Unit struct {
	Identity string  `json:"identity"`
	Name     string  `json:"name"`
	Kind     Kind    `json:"kind"`
	Language string  `json:"language"`
	Doc      string  `json:"doc,omitempty"`
	Members  []Member `json:"members,omitempty"`
	SubUnits []*Unit  `json:"sub_units,omitempty"`

	// SourcePaths lists the files this unit was parsed from, for diagnostics.
	// Not part of the fingerprinted structure.
	SourcePaths []string `json:"-"`

	// ParseFailures records source files in this unit that could not be read
	// or parsed. The unit is still discovered so the failure is reported
	// against it without aborting the run. Not fingerprinted.
	ParseFailures []string `json:"-"`
}

// OrderPolicy decides, per unit kind, whether declaration order is
// semantically significant and must be preserved when fingerprinting.
// Kinds absent from the map are order-insensitive.
type OrderPolicy map[Kind]bool

// DefaultOrderPolicy returns the built-in policy: no kind is order-significant.
// Go declaration order carries no semantics at any granularity we document.
func DefaultOrderPolicy() OrderPolicy {
	return OrderPolicy{}
}

// OrderSignificant reports whether members of the given kind must keep
// their declared order in the canonical form.
func (p OrderPolicy) OrderSignificant(kind Kind) bool {
	return p[kind]
}
