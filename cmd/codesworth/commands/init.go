package commands

import (
	"fmt"
	"os"

	"github.com/neural-chilli/codesworth/internal/config"
)

// InitCmd writes a starter configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if _, err := os.Stat(root.Config); err == nil && !i.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", root.Config)
	}

	cfg := config.Default()
	if err := cfg.Save(root.Config); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", root.Config)
	fmt.Println("Edit project.source_dirs and project.docs_dir, then run: codesworth generate")
	return nil
}
