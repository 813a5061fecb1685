// Package fingerprint derives deterministic content digests for documented
// units. The digest covers structurally significant fields only (names,
// signatures, visibility, doc text, ownership) so that formatting-only source
// edits never trigger regeneration.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/neural-chilli/codesworth/internal/docunit"
)

// Scheme prefixes the hex digest in the stable textual encoding.
const Scheme = "sha256"

// Fingerprint is an opaque digest in stable textual form ("sha256:<hex>").
type Fingerprint string

// String returns the textual encoding.
func (f Fingerprint) String() string { return string(f) }

// Valid reports whether f carries a well-formed scheme-prefixed hex digest.
func (f Fingerprint) Valid() bool {
	scheme, hexPart, ok := strings.Cut(string(f), ":")
	if !ok || scheme != Scheme {
		return false
	}
	if len(hexPart) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hexPart)
	return err == nil
}

// canonicalUnit is the normalized representation serialized for hashing.
// Field order is fixed by the struct; json.Marshal emits struct fields in
// declaration order, giving a stable byte stream.
type canonicalUnit struct {
	Identity string            `json:"identity"`
	Name     string            `json:"name"`
	Kind     docunit.Kind      `json:"kind"`
	Language string            `json:"language"`
	Doc      string            `json:"doc"`
	Members  []canonicalMember `json:"members"`
	SubUnits []canonicalUnit   `json:"sub_units"`
}

type canonicalMember struct {
	Name       string             `json:"name"`
	Kind       string             `json:"kind"`
	Visibility docunit.Visibility `json:"visibility"`
	Signature  string             `json:"signature"`
	Doc        string             `json:"doc"`
}

// Compute derives the fingerprint for a unit under the given order policy.
//
// It is a pure function: equal structurally-significant content always yields
// equal fingerprints, and member reordering inside an order-insensitive kind
// does not change the result. Sub-units are always sorted by identity since
// file ownership within a package is a set, not a sequence.
func Compute(unit *docunit.Unit, policy docunit.OrderPolicy) (Fingerprint, error) {
	if unit == nil {
		return "", fmt.Errorf("unit is nil")
	}
	if unit.Identity == "" {
		return "", fmt.Errorf("unit has empty identity")
	}

	canonical := canonicalize(unit, policy)

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshal canonical unit: %w", err)
	}

	sum := sha256.Sum256(data)
	return Fingerprint(Scheme + ":" + hex.EncodeToString(sum[:])), nil
}

func canonicalize(unit *docunit.Unit, policy docunit.OrderPolicy) canonicalUnit {
	out := canonicalUnit{
		Identity: unit.Identity,
		Name:     unit.Name,
		Kind:     unit.Kind,
		Language: unit.Language,
		Doc:      normalizeDoc(unit.Doc),
		Members:  make([]canonicalMember, 0, len(unit.Members)),
		SubUnits: make([]canonicalUnit, 0, len(unit.SubUnits)),
	}

	for _, m := range unit.Members {
		out.Members = append(out.Members, canonicalMember{
			Name:       m.Name,
			Kind:       m.Kind,
			Visibility: m.Visibility,
			Signature:  strings.TrimSpace(m.Signature),
			Doc:        normalizeDoc(m.Doc),
		})
	}

	if !policy.OrderSignificant(unit.Kind) {
		sort.SliceStable(out.Members, func(i, j int) bool {
			if out.Members[i].Name != out.Members[j].Name {
				return out.Members[i].Name < out.Members[j].Name
			}
			if out.Members[i].Kind != out.Members[j].Kind {
				return out.Members[i].Kind < out.Members[j].Kind
			}
			return out.Members[i].Signature < out.Members[j].Signature
		})
	}

	for _, sub := range unit.SubUnits {
		out.SubUnits = append(out.SubUnits, canonicalize(sub, policy))
	}
	sort.SliceStable(out.SubUnits, func(i, j int) bool {
		return out.SubUnits[i].Identity < out.SubUnits[j].Identity
	})

	return out
}

// normalizeDoc trims trailing whitespace per line and surrounding blank lines
// so that comment re-wrapping that does not change text content does not
// change the fingerprint.
func normalizeDoc(doc string) string {
	if doc == "" {
		return ""
	}
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
