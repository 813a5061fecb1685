// Package pipeline orchestrates a documentation run: discover units,
// classify each against its stored fingerprint, regenerate and merge the
// changed ones, and write results through the document store.
//
// Units are independent, so the run is an embarrassingly parallel map over
// the unit set, executed by a bounded worker pool. No two units target the
// same document identity, so the engine takes no locks; write atomicity
// belongs to the store adapter.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/config"
	"github.com/neural-chilli/codesworth/internal/detect"
	"github.com/neural-chilli/codesworth/internal/docheader"
	"github.com/neural-chilli/codesworth/internal/docunit"
	"github.com/neural-chilli/codesworth/internal/events"
	"github.com/neural-chilli/codesworth/internal/fingerprint"
	"github.com/neural-chilli/codesworth/internal/generate"
	"github.com/neural-chilli/codesworth/internal/gitinfo"
	"github.com/neural-chilli/codesworth/internal/logfields"
	"github.com/neural-chilli/codesworth/internal/merge"
	"github.com/neural-chilli/codesworth/internal/metrics"
	"github.com/neural-chilli/codesworth/internal/observability"
	"github.com/neural-chilli/codesworth/internal/runstore"
	"github.com/neural-chilli/codesworth/internal/store"
)

// Discoverer yields the documented units for a run.
type Discoverer interface {
	Discover(ctx context.Context) ([]*docunit.Unit, error)
}

// Pipeline wires the core components for a run.
type Pipeline struct {
	cfg        *config.Config
	discoverer Discoverer
	generator  generate.Generator
	docs       store.DocumentStore
	policy     docunit.OrderPolicy

	recorder  metrics.Recorder
	publisher events.Publisher
	history   *runstore.Store
}

// New assembles a pipeline. Metrics, events, and history default to no-ops.
func New(cfg *config.Config, discoverer Discoverer, generator generate.Generator, docs store.DocumentStore) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		discoverer: discoverer,
		generator:  generator,
		docs:       docs,
		policy:     cfg.OrderPolicy(),
		recorder:   metrics.NoopRecorder{},
		publisher:  events.NoopPublisher{},
	}
}

// WithRecorder sets a metrics recorder.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	p.recorder = r
	return p
}

// WithPublisher sets an event publisher.
func (p *Pipeline) WithPublisher(pub events.Publisher) *Pipeline {
	p.publisher = pub
	return p
}

// WithHistory sets the run-history store.
func (p *Pipeline) WithHistory(h *runstore.Store) *Pipeline {
	p.history = h
	return p
}

// RunOptions controls one run.
type RunOptions struct {
	// Force regenerates Unchanged units too.
	Force bool
	// DryRun classifies and reports without generating or writing.
	DryRun bool
}

// Run executes a full documentation run. Per-unit failures never abort the
// run; the error return covers run-level failures only (discovery, shutdown).
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	started := time.Now()

	report := &RunReport{RunID: runID, Started: started}

	repoInfo, err := gitinfo.Describe(p.cfg.Project.SourceDirs[0])
	if err != nil {
		observability.WarnContext(ctx, "git inspection failed", logfields.Error(err))
	}

	units, err := p.discoverer.Discover(ctx)
	if err != nil {
		// Parse failures are reported per-unit by the discoverer; an error
		// here means the walk itself failed (unreadable source dir), which
		// no retrigger will fix.
		return nil, cerrors.Wrap(err, cerrors.CategoryParse, "unit discovery failed").Fatal().Build()
	}
	observability.InfoContext(ctx, "run started",
		logfields.Blocks(len(units)))

	workers := p.cfg.Generation.Workers
	if workers > len(units) && len(units) > 0 {
		workers = len(units)
	}
	if workers < 1 {
		workers = 1
	}
	p.recorder.SetGeneratorConcurrency(workers)

	jobs := make(chan *docunit.Unit)
	resultsCh := make(chan UnitResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for unit := range jobs {
				resultsCh <- p.processUnit(ctx, unit, opts, runID, repoInfo)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, unit := range units {
			select {
			case <-ctx.Done():
				// Stop scheduling; in-flight units finish their atomic
				// write or do not write at all.
				return
			case jobs <- unit:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for res := range resultsCh {
		report.Results = append(report.Results, res)
		p.recordResult(ctx, runID, res)
	}

	report.Finished = time.Now()
	p.recorder.ObserveRunDuration(report.Finished.Sub(started))
	_ = p.publisher.RunCompleted(runID, report.Written(), report.Skipped(), report.Failed())
	if p.history != nil {
		_ = p.history.RecordRun(ctx, runstore.RunRecord{
			RunID:    runID,
			Started:  started,
			Finished: report.Finished,
			Written:  report.Written(),
			Skipped:  report.Skipped(),
			Failed:   report.Failed(),
		})
	}

	observability.InfoContext(ctx, "run finished",
		logfields.Status("done"),
		logfields.DurationMS(float64(report.Finished.Sub(started).Milliseconds())))

	return report, ctx.Err()
}

// processUnit runs classify -> extract -> generate -> merge -> write for one
// unit. Every failure path leaves the unit's existing document untouched.
func (p *Pipeline) processUnit(ctx context.Context, unit *docunit.Unit, opts RunOptions, runID string, repoInfo gitinfo.Info) UnitResult {
	ctx = observability.WithUnit(ctx, unit.Identity)
	started := time.Now()

	result := UnitResult{Unit: unit.Identity, Path: p.docs.Path(unit.Identity)}
	fail := func(err error) UnitResult {
		result.Status = StatusFailed
		result.Reason = err.Error()
		result.Category = cerrors.GetCategory(err)
		result.Duration = time.Since(started)
		observability.ErrorContext(ctx, "unit failed", logfields.Status(string(StatusFailed)))
		return result
	}

	if len(unit.ParseFailures) > 0 {
		return fail(cerrors.New(cerrors.CategoryParse, unit.ParseFailures[0]).
			WithContext("unit", unit.Identity).
			Build())
	}

	fp, err := p.stageFingerprint(ctx, unit)
	if err != nil {
		return fail(err)
	}

	previous, hadPrevious, err := p.docs.Read(unit.Identity)
	if err != nil {
		return fail(cerrors.Wrap(err, cerrors.CategoryStore, "read previous document").Build())
	}

	var priorMeta *docheader.Metadata
	var priorFields map[string]any
	if hadPrevious {
		priorMeta, priorFields, _, err = docheader.Parse(previous)
		if err != nil {
			return fail(cerrors.Wrap(err, cerrors.CategoryMerge, "previous document header is malformed").Build())
		}
	}

	result.Classification = detect.Classify(fp, priorMeta)
	if result.Classification == detect.Unchanged && !opts.Force {
		// The primary efficiency guarantee: the generator is never invoked
		// and the on-disk file is not touched.
		result.Status = StatusSkipped
		result.Duration = time.Since(started)
		observability.DebugContext(ctx, "unit unchanged",
			logfields.Fingerprint(fp.String()))
		return result
	}

	if opts.DryRun {
		result.Status = StatusPlanned
		result.Duration = time.Since(started)
		return result
	}

	freshBody, err := p.stageGenerate(ctx, unit, repoInfo.Commit)
	if err != nil {
		return fail(err)
	}

	var previousDoc []byte
	if hadPrevious && p.cfg.Generation.PreserveEdits {
		previousDoc = previous
	}

	mergeStart := time.Now()
	merged, err := merge.Merge(freshBody, previousDoc, unit, fp, merge.Options{
		Now:    time.Now(),
		Commit: repoInfo.Commit,
		Dirty:  repoInfo.Dirty,
	})
	p.recorder.ObserveStageDuration("merge", time.Since(mergeStart))
	if err != nil {
		return fail(err)
	}

	document, err := docheader.Render(&merged.Metadata, priorFields, merged.Body, time.Now())
	if err != nil {
		return fail(cerrors.Wrap(err, cerrors.CategoryMerge, "render document header").Build())
	}

	if err := p.docs.Write(unit.Identity, document); err != nil {
		return fail(cerrors.Wrap(err, cerrors.CategoryStore, "write document").Build())
	}

	result.Status = StatusWritten
	result.Orphaned = merged.Orphaned
	result.Duration = time.Since(started)

	observability.InfoContext(ctx, "unit written",
		logfields.Status(string(StatusWritten)),
		logfields.Fingerprint(fp.String()),
		logfields.Orphans(len(merged.Orphaned)),
		logfields.Path(result.Path))
	return result
}

func (p *Pipeline) stageFingerprint(ctx context.Context, unit *docunit.Unit) (fingerprint.Fingerprint, error) {
	ctx = observability.WithStage(ctx, "fingerprint")
	start := time.Now()
	fp, err := fingerprint.Compute(unit, p.policy)
	p.recorder.ObserveStageDuration("fingerprint", time.Since(start))
	if err != nil {
		observability.ErrorContext(ctx, "fingerprint failed", logfields.Error(err))
		return "", cerrors.Wrap(err, cerrors.CategoryFingerprint, "fingerprint input invalid").
			WithContext("unit", unit.Identity).
			Build()
	}
	return fp, nil
}

func (p *Pipeline) stageGenerate(ctx context.Context, unit *docunit.Unit, commit string) (string, error) {
	ctx = observability.WithStage(ctx, "generate")
	start := time.Now()
	body, err := p.generator.Generate(ctx, unit, generate.Context{
		ProjectName: p.cfg.Project.Name,
		Commit:      commit,
		Now:         time.Now(),
	})
	p.recorder.ObserveStageDuration("generate", time.Since(start))
	if err != nil {
		observability.ErrorContext(ctx, "generation failed", logfields.Error(err))
		return "", err
	}
	return body, nil
}

func (p *Pipeline) recordResult(ctx context.Context, runID string, res UnitResult) {
	switch res.Status {
	case StatusWritten:
		p.recorder.IncUnitResult(metrics.ResultWritten)
		p.recorder.IncOrphanedBlocks(len(res.Orphaned))
		_ = p.publisher.UnitWritten(runID, res.Unit, res.Orphaned)
	case StatusSkipped:
		p.recorder.IncUnitResult(metrics.ResultSkipped)
	case StatusFailed:
		p.recorder.IncUnitResult(metrics.ResultFailed)
		_ = p.publisher.UnitFailed(runID, res.Unit, res.Reason)
	}

	if p.history != nil {
		_ = p.history.RecordUnit(ctx, runstore.UnitRecord{
			RunID:   runID,
			Unit:    res.Unit,
			Status:  string(res.Status),
			Reason:  res.Reason,
			Orphans: res.Orphaned,
		})
	}
}
