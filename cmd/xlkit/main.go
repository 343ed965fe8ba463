// Command xlkit is the CLI front end over the workbook repository, fork
// registry, and recalc engine.
package main

import (
	"fmt"
	"os"

	"github.com/xlkit/xlkit/internal/app"
	"github.com/xlkit/xlkit/internal/cli"
	"github.com/xlkit/xlkit/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	cfg, _, err := config.Load(config.LoadInput{
		WorkDir: workDir,
		Env:     os.Environ(),
	})
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = workDir
	}

	a, err := app.Open(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	return cli.Run(a, stdout, stderr, args)
}
