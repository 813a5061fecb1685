package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neural-chilli/codesworth/internal/pipeline"
)

// SyncCmd regenerates only units whose sources changed. With --dry-run it
// reports the plan without writing; with --fail-on-changes it exits nonzero
// when documentation is out of date, for CI drift gates.
type SyncCmd struct {
	DryRun        bool `name:"dry-run" help:"Report what would change without writing"`
	FailOnChanges bool `name:"fail-on-changes" help:"Exit nonzero if any unit needs regeneration (implies --dry-run)"`
}

func (s *SyncCmd) Run(_ *Global, root *CLI) error {
	eng, err := buildEngine(root.Config)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dryRun := s.DryRun || s.FailOnChanges
	report, err := eng.pipeline.Run(ctx, pipeline.RunOptions{DryRun: dryRun})
	if err != nil {
		return err
	}

	printReport(report, dryRun)
	if dryRun && eng.history != nil {
		if runs, err := eng.history.RecentRuns(ctx, 1); err == nil && len(runs) > 0 {
			last := runs[0]
			fmt.Printf("last recorded run %s: written %d, skipped %d, failed %d (%s)\n",
				last.RunID, last.Written, last.Skipped, last.Failed,
				last.Finished.Format("2006-01-02 15:04:05"))
		}
	}
	if report.HasFailures() {
		return fmt.Errorf("%d unit(s) failed", report.Failed())
	}
	if s.FailOnChanges && report.HasChanges() {
		return fmt.Errorf("documentation is out of date: %d unit(s) need regeneration", report.Planned())
	}
	return nil
}
