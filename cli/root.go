package main

import (
	"log/slog"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/sliverarmory/hijack/internal/config"
)

func newRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "hijack",
		Short:        "Inspect and launch programs under the hijack preload library",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			h := config.Handler(debug)
			slog.SetDefault(slog.New(h))
			cmd.SetContext(clog.WithLogger(cmd.Context(), clog.New(h)))
		},
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")

	cmd.AddCommand(
		newClassifyCmd(),
		newSymbolsCmd(),
		newFDsCmd(),
		newRunCmd(),
	)
	return cmd
}
