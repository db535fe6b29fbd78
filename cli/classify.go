package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sliverarmory/hijack"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify FD...",
		Short: "Print the namespace each descriptor value belongs to",
		Long: fmt.Sprintf("Descriptors below %d belong to the host; the rest belong to the library kernel.\n"+
			"Pass negative values after --.", hijack.FDOffset),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, arg := range args {
				fd, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("descriptor %q: %w", arg, err)
				}
				fmt.Fprintf(w, "%d\t%s\n", fd, hijack.Classify(fd))
			}
			return w.Flush()
		},
	}
}
