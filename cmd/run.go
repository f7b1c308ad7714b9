package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"trinity-go/config"
	"trinity-go/hooks"
	"trinity-go/randsrc"
	"trinity-go/supervisor"
	"trinity-go/syscalls"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the fuzzer",
	Long:  `Allocate the shared region, spawn worker children, and run until interrupted.`,
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

var (
	runConfigPath  string
	runChildren    int
	runHangTimeout int
	runCalls       string
	runQuiet       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to a config file (--children/--hang-timeout/--calls override its values)")
	runCmd.Flags().IntVar(&runChildren, "children", 0, "number of worker processes (default: config or 4)")
	runCmd.Flags().IntVar(&runHangTimeout, "hang-timeout", 0, "seconds a worker may sit mid-call before being killed and respawned")
	runCmd.Flags().StringVar(&runCalls, "calls", "", "comma-separated syscall names to enable (default: all registered)")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "suppress the live status line")
}

func loadRunConfig() (*config.Config, error) {
	var cfg *config.Config
	if runConfigPath != "" {
		loaded, err := config.Load(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if runChildren > 0 {
		cfg.Children = runChildren
	}
	if runHangTimeout > 0 {
		cfg.HangTimeoutSeconds = runHangTimeout
	}
	if runCalls != "" {
		cfg.EnabledCalls = strings.Split(runCalls, ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	runDir := GetRunDir()
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	tbl, err := syscalls.Build(randsrc.New(os.Getpid()))
	if err != nil {
		return fmt.Errorf("build syscall table: %w", err)
	}
	enabled := syscalls.Filter(tbl, cfg.EnabledCalls)

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	sup, err := supervisor.New(supervisor.Options{
		Children:    cfg.Children,
		NumEntries:  tbl.Count(),
		HangTimeout: time.Duration(cfg.HangTimeoutSeconds) * time.Second,
		Self:        self,
		ChildArgs: func(slot int) []string {
			return []string{
				"__fuzz-child",
				"--slot", strconv.Itoa(slot),
				"--entries", strconv.Itoa(tbl.Count()),
				"--children", strconv.Itoa(cfg.Children),
				"--run-dir", runDir,
				"--calls", strings.Join(enabled, ","),
			}
		},
		Hooks: hooks.Set{},
	})
	if err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}

	if !runQuiet && term.IsTerminal(int(os.Stdout.Fd())) {
		go showLiveStatus(ctx, sup)
	}

	return sup.Run(ctx)
}

// showLiveStatus prints a periodically refreshed counters line while the
// fuzzer runs, following the teacher's terminal-size-aware display pattern
// in container/exec.go (there used to size a PTY, here just to decide
// whether the status line fits without wrapping).
func showLiveStatus(ctx context.Context, sup *supervisor.Supervisor) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c := sup.Counters()
			line := fmt.Sprintf("\rdone=%d success=%d fail=%d", c.TotalDone, c.Successes, c.Failures)
			if len(line) > width {
				line = line[:width]
			}
			fmt.Fprint(os.Stdout, line)
		}
	}
}
