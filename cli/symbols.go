package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/sliverarmory/hijack/resolve"
	"github.com/sliverarmory/hijack/sysno"
)

func newSymbolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "symbols [NAME...]",
		Short: "Resolve the native implementations the preload library interposes",
		Long: "Reads the C runtime mapped into this process and prints the address of each\n" +
			"interposed call together with the library kernel syscall that serves it.\n" +
			"Calls the library kernel always serves have no native address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			calls := sysno.All()
			if len(args) > 0 {
				calls = calls[:0]
				for _, name := range args {
					c, ok := sysno.Lookup(name)
					if !ok {
						return fmt.Errorf("%q is not an interposed call", name)
					}
					calls = append(calls, c)
				}
			}

			var elf resolve.ELF
			path, base, err := elf.Library()
			if err != nil {
				return fmt.Errorf("locate C runtime: %w", err)
			}
			clog.FromContext(cmd.Context()).Debugf("C runtime %s at %#x", path, base)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CALL\tNATIVE\tKERNEL NR")
			for _, c := range calls {
				addr := "-"
				if !c.KernelOnly() {
					a, err := elf.Resolve(c.String())
					switch {
					case errors.Is(err, resolve.ErrNotFound):
						addr = "missing"
					case err != nil:
						return err
					default:
						addr = fmt.Sprintf("%#x", a)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", c, addr, c.NR())
			}
			return w.Flush()
		},
	}
}
