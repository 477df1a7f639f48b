package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/cli"
	"github.com/Epistemic-Technology/micrograph-mcp/server"
)

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(server.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
