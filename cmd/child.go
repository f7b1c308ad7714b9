package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trinity-go/argtype"
	"trinity-go/child"
	"trinity-go/randsrc"
	"trinity-go/shm"
	"trinity-go/syscalls"
	"trinity-go/table"
	"trinity-go/utils"
)

// fuzzChildFd is the descriptor the supervisor hands a re-exec'd child the
// shared region on, via exec.Cmd.ExtraFiles[0]. fuzzSyncFd is the sync
// pipe's write end, via ExtraFiles[1].
const (
	fuzzChildFd = 3
	fuzzSyncFd  = 4
)

// childCmd is the internal worker entrypoint the supervisor re-execs into;
// it is never meant to be invoked directly by a user, mirroring the
// teacher's hidden "exec-init"-style internal commands.
var childCmd = &cobra.Command{
	Use:    "__fuzz-child",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runChild,
}

var (
	childSlot     int
	childEntries  int
	childChildren int
	childRunDir   string
	childCalls    string
)

func init() {
	rootCmd.AddCommand(childCmd)

	childCmd.Flags().IntVar(&childSlot, "slot", 0, "this worker's shared-memory slot index")
	childCmd.Flags().IntVar(&childEntries, "entries", 0, "syscall table entry count")
	childCmd.Flags().IntVar(&childChildren, "children", 1, "total worker count (shared-region sizing)")
	childCmd.Flags().StringVar(&childRunDir, "run-dir", "/tmp/trinity-go", "scratch directory for pathname pools")
	childCmd.Flags().StringVar(&childCalls, "calls", "", "comma-separated syscall names this worker may pick from")
}

func runChild(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	sync := utils.NewSyncPipeChild(os.NewFile(fuzzSyncFd, "syncpipe-child"))

	src := randsrc.New(os.Getpid())

	tbl, err := syscalls.Build(src)
	if err != nil {
		sync.SignalError(err)
		return fmt.Errorf("build syscall table: %w", err)
	}

	region, err := shm.Open(fuzzChildFd, childEntries, childChildren)
	if err != nil {
		sync.SignalError(err)
		return fmt.Errorf("open shared region: %w", err)
	}
	defer region.Close()

	if err := tbl.Bind(region.ActiveCounts()); err != nil {
		sync.SignalError(err)
		return fmt.Errorf("bind active counters: %w", err)
	}

	if childCalls != "" {
		disableUnlisted(tbl, region, strings.Split(childCalls, ","))
	}

	pools, err := argtype.NewPools(childRunDir)
	if err != nil {
		sync.SignalError(err)
		return fmt.Errorf("create argument pools: %w", err)
	}
	defer pools.Close()

	c := child.New(tbl, region, childSlot, src, pools, table.Native)

	sync.Signal()
	sync.CloseChild()

	for ctx.Err() == nil {
		keepGoing, err := c.RunOnce()
		if err != nil {
			return fmt.Errorf("run once: %w", err)
		}
		if !keepGoing {
			return nil
		}
	}
	return nil
}

// disableUnlisted permanently deactivates every registered entry whose name
// is not in enabled, on both ABIs, via the same table.Deactivate path the
// ENOSYS handler uses (spec.md 4.8). Every worker calls this identically at
// startup so it races harmlessly: each entry's active_number only ever goes
// from 1 to 0 once, and a second Deactivate call on an already-zero counter
// is a no-op. Deactivate exempts entries flagged IGNORE_ENOSYS, so such an
// entry stays active even when its name is not in enabled.
func disableUnlisted(tbl *table.Table, region *shm.Region, enabled []string) {
	want := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		want[name] = true
	}

	for i := 0; i < tbl.Count(); i++ {
		entry, err := tbl.EntryAt(i)
		if err != nil || want[entry.Name] {
			continue
		}
		tbl.Deactivate(region.TableLock(), i, table.Native)
		tbl.Deactivate(region.TableLock(), i, table.Secondary)
	}
}
