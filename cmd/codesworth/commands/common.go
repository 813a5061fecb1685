package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/neural-chilli/codesworth/internal/config"
	"github.com/neural-chilli/codesworth/internal/events"
	"github.com/neural-chilli/codesworth/internal/generate"
	"github.com/neural-chilli/codesworth/internal/metrics"
	"github.com/neural-chilli/codesworth/internal/parser"
	"github.com/neural-chilli/codesworth/internal/pipeline"
	"github.com/neural-chilli/codesworth/internal/runstore"
	"github.com/neural-chilli/codesworth/internal/store"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command definition.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"codesworth.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Generate GenerateCmd `cmd:"" help:"Generate documentation for all units"`
	Sync     SyncCmd     `cmd:"" help:"Regenerate documentation for changed units only"`
	Validate ValidateCmd `cmd:"" help:"Check documentation health without modifying anything"`
	Daemon   DaemonCmd   `cmd:"" help:"Watch sources and keep documentation continuously in sync"`
	Preview  PreviewCmd  `cmd:"" help:"Serve the generated documentation over HTTP"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// engine bundles a configured pipeline with the optional services behind it,
// so commands can close what they opened.
type engine struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	walker   *parser.Walker
	registry *prometheus.Registry
	history  *runstore.Store
	events   events.Publisher
}

func (e *engine) Close() {
	if e.history != nil {
		_ = e.history.Close()
	}
	if e.events != nil {
		e.events.Close()
	}
}

// buildEngine loads configuration and wires the full pipeline. Optional
// services (LLM, metrics, events, history) attach only when enabled.
func buildEngine(configPath string) (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	registry, err := parser.NewRegistry(cfg.Parsing.Languages)
	if err != nil {
		return nil, err
	}
	walker := parser.NewWalker(cfg.Project, cfg.Parsing, registry)

	var generator generate.Generator
	generator, err = generate.NewTemplateGenerator(cfg.Generation.TemplateDir)
	if err != nil {
		return nil, err
	}
	if cfg.LLM.Enabled {
		generator, err = generate.NewOpenAIGenerator(cfg.LLM, generator)
		if err != nil {
			return nil, err
		}
	}

	docs := store.NewFileStore(cfg.Project.DocsDir)
	p := pipeline.New(cfg, walker, generator, docs)

	e := &engine{cfg: cfg, pipeline: p, walker: walker}

	if cfg.Metrics.Enabled {
		e.registry = prometheus.NewRegistry()
		p.WithRecorder(metrics.NewPrometheusRecorder(e.registry))
	}
	if cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.Subject)
		if err != nil {
			return nil, err
		}
		e.events = pub
		p.WithPublisher(pub)
	}
	if cfg.History.Enabled {
		h, err := runstore.New(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		e.history = h
		p.WithHistory(h)
	}

	return e, nil
}
