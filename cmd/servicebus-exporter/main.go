package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := &command{}

	cmd := root.Cmd()
	cmd.AddCommand(versionCmd)
	cmd.AddCommand((&checkCommand{root: root}).Cmd())

	if err := cmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
