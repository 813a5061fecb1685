package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neural-chilli/codesworth/internal/docunit"
)

func sampleUnit() *docunit.Unit {
	return &docunit.Unit{
		Identity: "internal/widget",
		Name:     "widget",
		Kind:     docunit.KindPackage,
		Language: "go",
		Doc:      "Package widget renders widgets.",
		Members: []docunit.Member{
			{Name: "New", Kind: "func", Visibility: docunit.VisibilityPublic, Signature: "func New() *Widget", Doc: "New builds a widget."},
			{Name: "Widget", Kind: "type", Visibility: docunit.VisibilityPublic, Signature: "type Widget struct"},
			{Name: "render", Kind: "func", Visibility: docunit.VisibilityPrivate, Signature: "func render(w *Widget)"},
		},
	}
}

func TestCompute_Deterministic(t *testing.T) {
	policy := docunit.DefaultOrderPolicy()

	a, err := Compute(sampleUnit(), policy)
	require.NoError(t, err)
	b, err := Compute(sampleUnit(), policy)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.True(t, a.Valid())
}

func TestCompute_MemberOrderInsensitiveByDefault(t *testing.T) {
	policy := docunit.DefaultOrderPolicy()

	original := sampleUnit()
	reordered := sampleUnit()
	reordered.Members[0], reordered.Members[2] = reordered.Members[2], reordered.Members[0]

	a, err := Compute(original, policy)
	require.NoError(t, err)
	b, err := Compute(reordered, policy)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestCompute_OrderSignificantKindDistinguishesOrder(t *testing.T) {
	policy := docunit.OrderPolicy{docunit.KindPackage: true}

	original := sampleUnit()
	reordered := sampleUnit()
	reordered.Members[0], reordered.Members[2] = reordered.Members[2], reordered.Members[0]

	a, err := Compute(original, policy)
	require.NoError(t, err)
	b, err := Compute(reordered, policy)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestCompute_DocChangeChangesFingerprint(t *testing.T) {
	policy := docunit.DefaultOrderPolicy()

	original := sampleUnit()
	edited := sampleUnit()
	edited.Members[0].Doc = "New builds a configured widget."

	a, err := Compute(original, policy)
	require.NoError(t, err)
	b, err := Compute(edited, policy)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestCompute_DocRewrapDoesNotChangeFingerprint(t *testing.T) {
	policy := docunit.DefaultOrderPolicy()

	original := sampleUnit()
	rewrapped := sampleUnit()
	rewrapped.Doc = "Package widget renders widgets.  \n"

	a, err := Compute(original, policy)
	require.NoError(t, err)
	b, err := Compute(rewrapped, policy)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestCompute_SubUnitsSortedByIdentity(t *testing.T) {
	policy := docunit.DefaultOrderPolicy()

	a := sampleUnit()
	a.SubUnits = []*docunit.Unit{
		{Identity: "internal/widget/a.go", Name: "a.go", Kind: docunit.KindFile},
		{Identity: "internal/widget/b.go", Name: "b.go", Kind: docunit.KindFile},
	}
	b := sampleUnit()
	b.SubUnits = []*docunit.Unit{
		{Identity: "internal/widget/b.go", Name: "b.go", Kind: docunit.KindFile},
		{Identity: "internal/widget/a.go", Name: "a.go", Kind: docunit.KindFile},
	}

	fpA, err := Compute(a, policy)
	require.NoError(t, err)
	fpB, err := Compute(b, policy)
	require.NoError(t, err)

	require.Equal(t, fpA, fpB)
}

func TestCompute_NilUnit_ReturnsError(t *testing.T) {
	_, err := Compute(nil, docunit.DefaultOrderPolicy())
	require.Error(t, err)
}

func TestValid_RejectsMalformedEncodings(t *testing.T) {
	require.False(t, Fingerprint("").Valid())
	require.False(t, Fingerprint("sha256:").Valid())
	require.False(t, Fingerprint("md5:abcd").Valid())
	require.False(t, Fingerprint("sha256:zzzz").Valid())

	fp, err := Compute(sampleUnit(), docunit.DefaultOrderPolicy())
	require.NoError(t, err)
	require.True(t, fp.Valid())
}
