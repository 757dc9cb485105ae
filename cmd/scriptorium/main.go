// Package main provides the scriptorium command line client.
package main

import (
	"context"
	"os"

	"github.com/dukex/scriptorium/pkg/cmd"
	"github.com/dukex/scriptorium/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("cli")

	err := newCommand().Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("scriptorium failed", "error", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "scriptorium",
		Usage:                 "Inspect, exchange and run text processing pipelines",
		EnableShellCompletion: true,
		Flags:                 cmd.CommonFlags(),
		Commands: []*cli.Command{
			actionsCommand(),
			workflowsCommand(),
			runCommand(),
		},
	}
}
