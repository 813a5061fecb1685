package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/neural-chilli/codesworth/cmd/codesworth/commands"
)

var version = "dev"

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("codesworth"),
		kong.Description("Documentation that survives regeneration: protected regions are preserved byte for byte."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := ctx.Run(&commands.Global{}); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
