package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/config"
	"github.com/neural-chilli/codesworth/internal/detect"
	"github.com/neural-chilli/codesworth/internal/docheader"
	"github.com/neural-chilli/codesworth/internal/docunit"
	"github.com/neural-chilli/codesworth/internal/generate"
	"github.com/neural-chilli/codesworth/internal/protect"
	"github.com/neural-chilli/codesworth/internal/store"
)

type staticDiscoverer struct {
	units []*docunit.Unit
}

func (d *staticDiscoverer) Discover(context.Context) ([]*docunit.Unit, error) {
	return d.units, nil
}

// countingGenerator wraps the template generator and counts invocations, so
// tests can assert the generator never runs for unchanged units.
type countingGenerator struct {
	inner generate.Generator
	calls atomic.Int64

	failFor string
}

func (g *countingGenerator) Name() string { return "counting" }

func (g *countingGenerator) Generate(ctx context.Context, unit *docunit.Unit, gctx generate.Context) (string, error) {
	g.calls.Add(1)
	if g.failFor != "" && unit.Identity == g.failFor {
		return "", fmt.Errorf("generator exploded for %s", unit.Identity)
	}
	return g.inner.Generate(ctx, unit, gctx)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Name = "demo"
	cfg.Project.SourceDirs = []string{t.TempDir()}
	cfg.Project.DocsDir = t.TempDir()
	cfg.Generation.Workers = 2
	return cfg
}

func testUnits() []*docunit.Unit {
	return []*docunit.Unit{
		{
			Identity: "demo/alpha", Name: "alpha", Kind: docunit.KindPackage, Language: "go",
			Doc: "Package alpha.",
			SubUnits: []*docunit.Unit{{
				Identity: "demo/alpha/a", Name: "a", Kind: docunit.KindFile,
				Members: []docunit.Member{{Name: "A", Kind: "func", Visibility: docunit.VisibilityPublic, Signature: "func A()"}},
			}},
		},
		{
			Identity: "demo/beta", Name: "beta", Kind: docunit.KindPackage, Language: "go",
			Doc: "Package beta.",
			SubUnits: []*docunit.Unit{{
				Identity: "demo/beta/b", Name: "b", Kind: docunit.KindFile,
				Members: []docunit.Member{{Name: "B", Kind: "func", Visibility: docunit.VisibilityPublic, Signature: "func B()"}},
			}},
		},
	}
}

func newTestPipeline(t *testing.T, cfg *config.Config, units []*docunit.Unit) (*Pipeline, *countingGenerator, *store.FileStore) {
	t.Helper()
	inner, err := generate.NewTemplateGenerator("")
	require.NoError(t, err)
	gen := &countingGenerator{inner: inner}
	docs := store.NewFileStore(cfg.Project.DocsDir)
	return New(cfg, &staticDiscoverer{units: units}, gen, docs), gen, docs
}

func TestRun_FirstRun_WritesEveryUnit(t *testing.T) {
	cfg := testConfig(t)
	p, gen, docs := newTestPipeline(t, cfg, testUnits())

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Equal(t, 2, report.Written())
	require.Zero(t, report.Skipped())
	require.Zero(t, report.Failed())
	require.EqualValues(t, 2, gen.calls.Load())

	for _, id := range []string{"demo/alpha", "demo/beta"} {
		_, ok, err := docs.Read(id)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestRun_UnchangedUnits_SkipWithoutInvokingGenerator(t *testing.T) {
	cfg := testConfig(t)
	p, gen, docs := newTestPipeline(t, cfg, testUnits())

	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	firstDoc, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	gen.calls.Store(0)

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Equal(t, 2, report.Skipped())
	require.Zero(t, report.Written())
	require.Zero(t, gen.calls.Load(), "generator must not run for unchanged units")

	// The skipped file is untouched, byte for byte.
	secondDoc, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	require.Equal(t, firstDoc, secondDoc)
}

func TestRun_ForceRegeneratesUnchangedUnits(t *testing.T) {
	cfg := testConfig(t)
	p, gen, _ := newTestPipeline(t, cfg, testUnits())

	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	gen.calls.Store(0)

	report, err := p.Run(context.Background(), RunOptions{Force: true})
	require.NoError(t, err)
	require.Equal(t, 2, report.Written())
	require.EqualValues(t, 2, gen.calls.Load())
}

func TestRun_SourceChange_RegeneratesOnlyChangedUnit(t *testing.T) {
	cfg := testConfig(t)
	units := testUnits()
	p, gen, _ := newTestPipeline(t, cfg, units)

	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	gen.calls.Store(0)

	units[0].SubUnits[0].Members = append(units[0].SubUnits[0].Members,
		docunit.Member{Name: "A2", Kind: "func", Visibility: docunit.VisibilityPublic, Signature: "func A2()"})

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Written())
	require.Equal(t, 1, report.Skipped())
	require.EqualValues(t, 1, gen.calls.Load())
}

func TestRun_EditsInProtectedRegionsSurvive(t *testing.T) {
	cfg := testConfig(t)
	units := testUnits()
	p, _, docs := newTestPipeline(t, cfg, units)

	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	// A human replaces the overview placeholder content.
	doc, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	edited := replaceBlockContent(t, doc, "module-overview", "Hand-written overview that must survive.")
	require.NoError(t, docs.Write("demo/alpha", edited))

	// The source changes, forcing regeneration.
	units[0].SubUnits[0].Members[0].Doc = "A does things now."

	_, err = p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	regenerated, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	require.Contains(t, string(regenerated), "Hand-written overview that must survive.")
}

func TestRun_DryRun_WritesNothing(t *testing.T) {
	cfg := testConfig(t)
	p, gen, docs := newTestPipeline(t, cfg, testUnits())

	report, err := p.Run(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)

	require.Equal(t, 2, report.Planned())
	require.True(t, report.HasChanges())
	require.Zero(t, gen.calls.Load())

	_, ok, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRun_FailingUnit_DoesNotAffectOthers(t *testing.T) {
	cfg := testConfig(t)
	p, gen, docs := newTestPipeline(t, cfg, testUnits())
	gen.failFor = "demo/alpha"

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Equal(t, 1, report.Failed())
	require.Equal(t, 1, report.Written())
	require.True(t, report.HasFailures())

	_, ok, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	require.False(t, ok, "failed unit must leave no document behind")
	_, ok, err = docs.Read("demo/beta")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRun_FailingUnit_LeavesPreviousDocumentUntouched(t *testing.T) {
	cfg := testConfig(t)
	units := testUnits()
	p, gen, docs := newTestPipeline(t, cfg, units)

	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	before, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)

	// Change the source so alpha needs regeneration, then make it fail.
	units[0].SubUnits[0].Members[0].Doc = "changed"
	gen.failFor = "demo/alpha"

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())

	after, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRun_UnparseableUnit_DoesNotAbortTheRun(t *testing.T) {
	cfg := testConfig(t)
	units := testUnits()
	units[0].ParseFailures = []string{"parse demo/alpha/a.go: expected 'IDENT', found '{'"}
	p, gen, docs := newTestPipeline(t, cfg, units)

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Equal(t, 1, report.Failed())
	require.Equal(t, 1, report.Written())

	var failed UnitResult
	for _, res := range report.Results {
		if res.Status == StatusFailed {
			failed = res
		}
	}
	require.Equal(t, "demo/alpha", failed.Unit)
	require.Equal(t, cerrors.CategoryParse, failed.Category)
	require.Contains(t, failed.Reason, "expected 'IDENT'")

	// Only the healthy unit reaches the generator.
	require.EqualValues(t, 1, gen.calls.Load())
	_, ok, err := docs.Read("demo/beta")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = docs.Read("demo/alpha")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRun_UnparseableUnit_LeavesPreviousDocumentUntouched(t *testing.T) {
	cfg := testConfig(t)
	units := testUnits()
	p, _, docs := newTestPipeline(t, cfg, units)

	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	before, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)

	units[0].ParseFailures = []string{"parse demo/alpha/a.go: unexpected EOF"}

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())

	after, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRun_ForcedRerun_PreservesBodyAndUID(t *testing.T) {
	cfg := testConfig(t)
	p, _, docs := newTestPipeline(t, cfg, testUnits())

	_, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	first, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)

	// A forced regeneration with no source change refreshes the generated
	// timestamp but must leave the body and the document uid alone.
	_, err = p.Run(context.Background(), RunOptions{Force: true})
	require.NoError(t, err)
	second, _, err := docs.Read("demo/alpha")
	require.NoError(t, err)

	_, firstFields, firstBody, err := docheader.Parse(first)
	require.NoError(t, err)
	_, secondFields, secondBody, err := docheader.Parse(second)
	require.NoError(t, err)
	require.Equal(t, string(firstBody), string(secondBody))
	require.Equal(t, firstFields["uid"], secondFields["uid"])
}

func TestRun_ReportCarriesClassification(t *testing.T) {
	cfg := testConfig(t)
	p, _, _ := newTestPipeline(t, cfg, testUnits())

	report, err := p.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	for _, res := range report.Results {
		require.Equal(t, detect.New, res.Classification)
		require.NotEmpty(t, res.Path)
	}
	require.NotEmpty(t, report.RunID)
}

// replaceBlockContent swaps the content of one protected block in a full
// document, simulating a human edit.
func replaceBlockContent(t *testing.T, doc []byte, id, newContent string) []byte {
	t.Helper()
	s := string(doc)
	_, blocks, err := protect.Extract(s)
	require.NoError(t, err)
	for _, b := range blocks {
		if b.ID == id {
			old := protect.Format(b.Label, b.Content)
			require.Contains(t, s, old)
			return []byte(strings.Replace(s, old, protect.Format(b.Label, newContent), 1))
		}
	}
	t.Fatalf("block %q not found", id)
	return nil
}
