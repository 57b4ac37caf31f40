package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/exeflow/exeflow/pkg/log"
	"github.com/exeflow/exeflow/pkg/registry"
)

func NewNodesCommand() *cli.Command {
	return &cli.Command{
		Name:    "nodes",
		Aliases: []string{"n"},
		Usage:   "List the registered node types",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			reg := registry.NewRegistry(log.WithModule("exeflow"))
			reg.RegisterDefaultStrategies()

			for _, nodeType := range reg.SupportedNodeTypes() {
				factory, _ := reg.GetFactory(nodeType)
				_, _ = fmt.Fprintf(os.Stdout, "%-14s %-20s %s\n", factory.ID(), factory.Name(), factory.Description())
			}

			return nil
		},
	}
}
