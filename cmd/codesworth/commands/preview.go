package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neural-chilli/codesworth/internal/config"
	"github.com/neural-chilli/codesworth/internal/preview"
)

// PreviewCmd serves the docs directory over HTTP.
type PreviewCmd struct {
	Addr string `help:"Listen address" default:"localhost:8675"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving %s at http://%s\n", cfg.Project.DocsDir, p.Addr)
	srv := preview.NewServer(cfg.Project.DocsDir, cfg.Project.Name)
	err = srv.ListenAndServe(ctx, p.Addr)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
