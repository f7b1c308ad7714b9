package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trinity-go/randsrc"
	"trinity-go/syscalls"
	"trinity-go/table"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered syscall table entries",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	tbl, err := syscalls.Build(randsrc.New(os.Getpid()))
	if err != nil {
		return fmt.Errorf("build syscall table: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "INDEX\tNAME\tNR\tARGS\tFLAGS")
	for i := 0; i < tbl.Count(); i++ {
		e, err := tbl.EntryAt(i)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", e.Index, e.Name, e.NR, len(e.Args), flagString(e))
	}
	return nil
}

func flagString(e *table.Entry) string {
	s := ""
	if e.HasFlag(table.NeedAlarm) {
		s += "alarm,"
	}
	if e.HasFlag(table.IgnoreENOSYS) {
		s += "ignore_enosys,"
	}
	if e.HasFlag(table.ExtraFork) {
		s += "extra_fork,"
	}
	if s == "" {
		return "-"
	}
	return s[:len(s)-1]
}
