package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func consumeCmd(load loader) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Route work orders from the local change feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			consumer, err := app.Consumer()
			if err != nil {
				return err
			}

			if once {
				res, err := consumer.RunOnce(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "processed=%d published=%d skipped=%d failed=%d\n",
					res.Processed, res.Published, res.Skipped, res.Failed)
				return nil
			}

			consumer.Start()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			logger.Infof("received %s, stopping consumer", sig)
			return consumer.Stop()
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "process one batch and exit")
	return cmd
}
