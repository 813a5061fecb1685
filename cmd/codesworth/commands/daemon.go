package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neural-chilli/codesworth/internal/daemon"
)

// DaemonCmd runs continuous sync mode.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	eng, err := buildEngine(root.Config)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if eng.history != nil {
		if runs, herr := eng.history.RecentRuns(ctx, 1); herr == nil && len(runs) > 0 {
			last := runs[0]
			slog.Info("resuming after previous run",
				"run_id", last.RunID, "written", last.Written,
				"skipped", last.Skipped, "failed", last.Failed,
				"finished", last.Finished.Format(time.RFC3339))
		}
	}

	dmn := daemon.New(eng.cfg, eng.pipeline)
	if eng.registry != nil {
		dmn.WithMetricsRegistry(eng.registry)
	}

	err = dmn.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
