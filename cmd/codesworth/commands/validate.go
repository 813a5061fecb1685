package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neural-chilli/codesworth/internal/store"
	"github.com/neural-chilli/codesworth/internal/validate"
)

// ValidateCmd checks documentation health.
type ValidateCmd struct {
	Strict bool `help:"Treat warnings as errors"`
}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	eng, err := buildEngine(root.Config)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	units, err := eng.walker.Discover(ctx)
	if err != nil {
		return err
	}

	validator := validate.New(eng.cfg.Project.DocsDir, store.NewFileStore(eng.cfg.Project.DocsDir), eng.cfg.OrderPolicy())
	report, err := validator.Validate(ctx, units)
	if err != nil {
		return err
	}

	for _, finding := range report.Findings {
		fmt.Println(finding)
	}
	fmt.Printf("%d error(s), %d warning(s) across %d unit(s)\n",
		report.Errors(), report.Warnings(), len(units))

	if report.HasErrors(v.Strict) {
		return fmt.Errorf("validation failed")
	}
	return nil
}
