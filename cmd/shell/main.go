package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
	cancel()

	os.Exit(exitCode)
}
