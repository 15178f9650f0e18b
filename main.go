// main is the entry point for the mres CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mres-project/mres/cmd"
	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/runstore"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.SetRootContext(ctx)

	defer runstore.CloseStores()
	defer func() {
		if err := cmd.StopProfiling(); err != nil {
			contract.LogWarn("profiling", err)
		}
	}()

	if err := cmd.Execute(); err != nil {
		contract.LogWarn("command", err)
		stop()
		runstore.CloseStores()
		os.Exit(1)
	}
}
