// Package daemon keeps documentation continuously in sync with source. It
// watches the source directories for changes and debounces them into runs,
// optionally supplemented by a cron schedule for drift the watcher misses
// (branch switches, clock-driven regeneration).
package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neural-chilli/codesworth/internal/cerrors"
	"github.com/neural-chilli/codesworth/internal/config"
	"github.com/neural-chilli/codesworth/internal/logfields"
	"github.com/neural-chilli/codesworth/internal/observability"
	"github.com/neural-chilli/codesworth/internal/pipeline"
)

// Runner triggers one documentation run. The daemon serializes calls.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*pipeline.RunReport, error)
}

// Daemon watches sources and re-runs the pipeline.
type Daemon struct {
	cfg    *config.Config
	runner Runner

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
	registry  *prometheus.Registry
	trigger   chan string
}

// New builds a daemon around a runner.
func New(cfg *config.Config, runner Runner) *Daemon {
	return &Daemon{
		cfg:    cfg,
		runner: runner,
		// Buffer of one: a pending trigger coalesces with in-flight ones.
		trigger: make(chan string, 1),
	}
}

// WithMetricsRegistry sets the registry exposed at /metrics.
func (d *Daemon) WithMetricsRegistry(reg *prometheus.Registry) *Daemon {
	d.registry = reg
	return d
}

// Run starts the watcher, optional schedule, and optional metrics endpoint,
// then loops until ctx is cancelled. An initial run fires immediately so a
// freshly started daemon converges before the first edit.
func (d *Daemon) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	d.watcher = watcher
	defer watcher.Close()

	for _, dir := range d.cfg.Project.SourceDirs {
		if err := d.watchRecursive(dir); err != nil {
			return err
		}
	}

	if d.cfg.Daemon.Schedule != "" {
		if err := d.startSchedule(); err != nil {
			return err
		}
		defer func() { _ = d.scheduler.Shutdown() }()
	}

	if d.cfg.Metrics.Enabled && d.cfg.Daemon.ListenAddr != "" {
		go d.serveMetrics(ctx)
	}

	go d.watchLoop(ctx)

	d.fire("startup")
	return d.runLoop(ctx)
}

// runLoop debounces triggers into runs. A trigger arriving during the
// debounce window restarts the window; a trigger arriving during a run is
// held in the buffered channel and starts the next run.
func (d *Daemon) runLoop(ctx context.Context) error {
	debounce := d.cfg.Daemon.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-d.trigger:
			timer := time.NewTimer(debounce)
		settle:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-d.trigger:
					if !timer.Stop() {
						<-timer.C
					}
					timer.Reset(debounce)
				case <-timer.C:
					break settle
				}
			}

			observability.InfoContext(ctx, "sync triggered", logfields.Status(reason))
			report, err := d.runner.Run(ctx, pipeline.RunOptions{})
			if err != nil {
				// A fatal classification means rewatching will not help
				// (broken config, unwritable docs dir); stop the daemon.
				if classified, ok := cerrors.AsClassified(err); ok && classified.IsFatal() {
					return err
				}
				observability.ErrorContext(ctx, "sync run failed", logfields.Error(err))
				continue
			}
			observability.InfoContext(ctx, "sync run finished",
				logfields.RunID(report.RunID),
				logfields.Blocks(report.Written()))
		}
	}
}

func (d *Daemon) fire(reason string) {
	select {
	case d.trigger <- reason:
	default:
	}
}

// watchLoop forwards relevant filesystem events into the trigger channel and
// registers newly created directories.
func (d *Daemon) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !d.relevant(event) {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				// New subdirectories must be added or edits under them
				// go unseen.
				_ = d.watchRecursive(event.Name)
			}
			d.fire("file-change")
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			observability.WarnContext(ctx, "watcher error", logfields.Error(err))
		}
	}
}

// relevant filters watcher noise: only source-looking files trigger runs,
// and ignored directories never do.
func (d *Daemon) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, pattern := range d.cfg.Project.IgnorePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return false
		}
	}
	if event.Op.Has(fsnotify.Create) {
		return true // could be a new directory; watchLoop sorts it out
	}
	ext := filepath.Ext(base)
	for _, lang := range d.cfg.Parsing.Languages {
		if ext == "."+lang {
			return true
		}
	}
	return ext == ".go"
}

func (d *Daemon) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if name != "." && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		for _, pattern := range d.cfg.Project.IgnorePatterns {
			if ok, _ := filepath.Match(pattern, name); ok {
				return filepath.SkipDir
			}
		}
		return d.watcher.Add(path)
	})
}

func (d *Daemon) startSchedule() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.CronJob(d.cfg.Daemon.Schedule, false),
		gocron.NewTask(func() { d.fire("schedule") }),
		gocron.WithName("scheduled-sync"),
	)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", d.cfg.Daemon.Schedule, err)
	}
	scheduler.Start()
	d.scheduler = scheduler
	return nil
}

func (d *Daemon) serveMetrics(ctx context.Context) {
	handler := promhttp.Handler()
	if d.registry != nil {
		handler = promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              d.cfg.Daemon.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	observability.InfoContext(ctx, "metrics endpoint listening", logfields.Path(d.cfg.Daemon.ListenAddr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		observability.WarnContext(ctx, "metrics endpoint failed", logfields.Error(err))
	}
}
