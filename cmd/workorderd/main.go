// Command workorderd runs the work order API, its change feed consumer and
// local inspection tools.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/workorders/internal/config"
	"github.com/example/workorders/internal/wire"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "workorderd",
		Short: "Work order API and notification router",
		Long: `workorderd accepts work orders over HTTP, stores them and routes a
notification for each one to the channel configured for its status.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	load := func(ctx context.Context) (*wire.App, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return wire.New(ctx, cfg)
	}

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(consumeCmd(load))
	rootCmd.AddCommand(listCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type loader func(ctx context.Context) (*wire.App, error)
