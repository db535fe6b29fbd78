package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"github.com/sliverarmory/hijack"
)

func newFDsCmd() *cobra.Command {
	var pid int32

	cmd := &cobra.Command{
		Use:   "fds",
		Short: "List a process's open host descriptors and their namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid <= 0 {
				pid = int32(os.Getpid())
			}
			proc, err := process.NewProcessWithContext(cmd.Context(), pid)
			if err != nil {
				return fmt.Errorf("process %d: %w", pid, err)
			}
			files, err := proc.OpenFilesWithContext(cmd.Context())
			if err != nil {
				return fmt.Errorf("open files of %d: %w", pid, err)
			}
			sort.Slice(files, func(i, j int) bool { return files[i].Fd < files[j].Fd })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FD\tSPACE\tPATH")
			for _, f := range files {
				fmt.Fprintf(w, "%d\t%s\t%s\n", f.Fd, hijack.Classify(int(f.Fd)), f.Path)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int32Var(&pid, "pid", 0, "Process to inspect (default: this process)")
	return cmd
}
