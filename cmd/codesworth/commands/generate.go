package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/pipeline"
)

// GenerateCmd runs a full documentation pass.
type GenerateCmd struct {
	Force bool `help:"Regenerate every unit, including unchanged ones"`
}

func (g *GenerateCmd) Run(_ *Global, root *CLI) error {
	eng, err := buildEngine(root.Config)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := eng.pipeline.Run(ctx, pipeline.RunOptions{Force: g.Force})
	if err != nil {
		return err
	}

	printReport(report, false)
	if report.HasFailures() {
		return fmt.Errorf("%d unit(s) failed", report.Failed())
	}
	return nil
}

// printReport writes the human run summary to stdout.
func printReport(report *pipeline.RunReport, dryRun bool) {
	verb := "written"
	if dryRun {
		verb = "would write"
	}
	fmt.Printf("%s %d, skipped %d, failed %d (%.2fs)\n",
		verb,
		report.Written()+report.Planned(),
		report.Skipped(),
		report.Failed(),
		report.Finished.Sub(report.Started).Seconds())

	for _, res := range report.Results {
		switch {
		case res.Status == pipeline.StatusFailed:
			fmt.Printf("  FAIL  %s [%s]: %s\n", res.Unit, res.Category, res.Reason)
		case len(res.Orphaned) > 0:
			fmt.Printf("  NOTE  %s: %d protected block(s) moved to the preserved-content section\n",
				res.Unit, len(res.Orphaned))
		}
	}

	if report.HasFailures() {
		byCategory := report.FailuresByCategory()
		cats := make([]string, 0, len(byCategory))
		for cat := range byCategory {
			cats = append(cats, string(cat))
		}
		sort.Strings(cats)
		parts := make([]string, 0, len(cats))
		for _, cat := range cats {
			parts = append(parts, fmt.Sprintf("%s: %d", cat, byCategory[cerrors.Category(cat)]))
		}
		fmt.Printf("failures by category: %s\n", strings.Join(parts, ", "))
	}
}
