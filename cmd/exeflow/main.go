package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "exeflow",
		EnableShellCompletion: true,
		Usage:                 "Execute workflow nodes through the four-phase lifecycle engine",
		Commands: []*cli.Command{
			NewRunCommand(),
			NewNodesCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
