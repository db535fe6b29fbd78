package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/sliverarmory/hijack/internal/config"
)

func newRunCmd() *cobra.Command {
	var (
		lib      string
		resolver string
		symbol   string
	)

	cmd := &cobra.Command{
		Use:   "run --lib PATH -- COMMAND [ARG...]",
		Short: "Run a command with the preload library injected",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(lib)
			if err != nil {
				return err
			}
			if _, err := os.Stat(abs); err != nil {
				return fmt.Errorf("preload library: %w", err)
			}

			preload := abs
			if prev := os.Getenv("LD_PRELOAD"); prev != "" {
				preload += ":" + prev
			}
			overrides := map[string]string{
				"LD_PRELOAD":                 preload,
				config.Key("RESOLVER"):       resolver,
				config.Key("GATEWAY_SYMBOL"): symbol,
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				overrides[config.Key("DEBUG")] = "true"
			}

			c := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
			c.Env = config.Override(os.Environ(), overrides)
			c.Stdin = cmd.InOrStdin()
			c.Stdout = cmd.OutOrStdout()
			c.Stderr = cmd.ErrOrStderr()
			clog.FromContext(cmd.Context()).Debugf("running %v with LD_PRELOAD=%s", args, preload)
			return c.Run()
		},
	}
	cmd.Flags().StringVar(&lib, "lib", "libhijack.so", "Path of the preload library")
	cmd.Flags().StringVar(&resolver, "resolver", config.ResolverNext, "How the library finds native calls: next or elf")
	cmd.Flags().StringVar(&symbol, "gateway-symbol", "lkl_syscall", "Library kernel syscall entry point")
	return cmd
}
