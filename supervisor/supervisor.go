// Package supervisor is the external, out-of-core process manager
// spec.md's CORE assumes exists: it allocates the shared region, spawns
// one child process per slot, polls each child's record for hangs, and
// kills/respawns children that stop making progress.
package supervisor

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"time"

	ferrors "trinity-go/errors"
	"trinity-go/hooks"
	"trinity-go/logging"
	"trinity-go/shm"
	"trinity-go/table"
	"trinity-go/utils"
)

// Options configures one supervisor run.
type Options struct {
	// Children is the number of worker processes to spawn.
	Children int
	// NumEntries is the syscall table's entry count, used to size the
	// shared active-counters array; every child must build an identical
	// table (same count, same order) independently.
	NumEntries int
	// HangTimeout is how long a record may sit in BEFORE before the
	// supervisor kills and respawns that child.
	HangTimeout time.Duration
	// PollInterval is how often the supervisor re-checks every slot.
	PollInterval time.Duration
	// ReadyTimeout bounds how long the supervisor waits on a freshly
	// spawned child's startup handshake before giving up on it.
	ReadyTimeout time.Duration
	// Self is the path to this binary, used to re-exec one process per
	// child slot (the teacher's container/exec.go self-re-exec pattern,
	// adapted: there it re-execs to join a container's namespaces, here it
	// re-execs to become a worker bound to one shared-memory slot).
	Self string
	// ChildArgs builds the argv (excluding argv[0]) for the child occupying
	// the given slot; supplied by the CLI layer so this package does not
	// need to know about cobra or flag names.
	ChildArgs func(slot int) []string
	// Hooks fire on kill/respawn events, if configured. The supervisor
	// runs no hook for entry deactivation.
	Hooks hooks.Set
}

type workerState struct {
	cmd  *exec.Cmd
	slot int
}

// Supervisor owns the shared region and the set of running children.
type Supervisor struct {
	opts    Options
	region  *shm.Region
	memfd   *os.File
	workers []*workerState
	log     *slog.Logger
}

// New allocates the shared region sized for opts and prepares (but does
// not yet start) the supervisor.
func New(opts Options) (*Supervisor, error) {
	if opts.Children < 1 {
		return nil, ferrors.ErrInvalidChildCount
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 200 * time.Millisecond
	}
	if opts.HangTimeout <= 0 {
		opts.HangTimeout = 10 * time.Second
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 3 * time.Second
	}

	region, backing, err := shm.NewShared(opts.NumEntries, opts.Children)
	if err != nil {
		return nil, err
	}
	region.InitCounts()
	table.InitCounts(region.ActiveCounts(), opts.NumEntries)

	return &Supervisor{
		opts:   opts,
		region: region,
		memfd:  backing.File,
		log:    logging.WithChild(logging.Default(), -1),
	}, nil
}

// Run spawns every child and polls until ctx is cancelled. It returns once
// every worker has been asked to stop.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.region.Close()

	for slot := 0; slot < s.opts.Children; slot++ {
		if err := s.spawn(slot); err != nil {
			return ferrors.Wrap(err, ferrors.ErrInternal, "spawn initial children")
		}
	}

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			return nil
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

// spawn re-execs the binary for the given slot, inheriting the shared
// region's memfd as fd 3 and a sync pipe's write end as fd 4 via
// ExtraFiles, then waits for the child's startup handshake (grounded on
// the teacher's utils.SyncPipe parent/child readiness signal, used there
// around container init and reused here around table bind + pool setup).
func (s *Supervisor) spawn(slot int) error {
	pipe, err := utils.NewSyncPipe()
	if err != nil {
		return ferrors.Wrap(err, ferrors.ErrInternal, "create sync pipe")
	}

	cmd := exec.Command(s.opts.Self, s.opts.ChildArgs(slot)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{s.memfd, pipe.ChildFile()}

	if err := cmd.Start(); err != nil {
		pipe.Close()
		return ferrors.WrapWithDetail(err, ferrors.ErrInternal, "spawn child", "slot "+itoa(slot))
	}
	pipe.CloseChild()

	if err := s.waitReady(pipe); err != nil {
		s.log.Warn("child readiness handshake failed",
			slog.Int("slot", slot), slog.String("error", err.Error()))
	}
	pipe.CloseParent()

	s.ensureWorkerSlice()
	s.workers[slot] = &workerState{cmd: cmd, slot: slot}

	go func(w *workerState) {
		_ = w.cmd.Wait()
	}(s.workers[slot])

	return nil
}

// waitReady blocks for the child's readiness signal, bounded by
// opts.ReadyTimeout. A child that never signals (crashed before setup, or
// isn't a trinity-go worker at all) is tolerated: spawn logs a warning and
// keeps the worker. The poll loop respawns it only if its record is later
// seen stuck in BEFORE; a record that stays UNUSED is never acted on.
func (s *Supervisor) waitReady(pipe *utils.SyncPipe) error {
	_ = pipe.ParentFile().SetReadDeadline(time.Now().Add(s.opts.ReadyTimeout))
	return pipe.WaitWithError()
}

func (s *Supervisor) ensureWorkerSlice() {
	if s.workers == nil {
		s.workers = make([]*workerState, s.opts.Children)
	}
}

// pollOnce reads state+tv under each record's lock (spec.md 4.6) and
// kills/respawns any child stuck in BEFORE past HangTimeout. A child whose
// process has exited is not detected here and is not respawned.
func (s *Supervisor) pollOnce() {
	for slot := 0; slot < s.opts.Children; slot++ {
		rec, err := s.region.Slot(slot)
		if err != nil {
			continue
		}

		rec.Lock()
		state := rec.State()
		sec, nsec := rec.Timestamp()
		rec.Unlock()

		if state != shm.StateBefore {
			continue
		}

		age := time.Since(time.Unix(sec, nsec))
		if age < s.opts.HangTimeout {
			continue
		}

		s.log.Warn("child hung, killing and respawning",
			slog.Int("slot", slot),
			slog.Duration("age", age),
		)
		s.killAndRespawn(slot)
	}
}

func (s *Supervisor) killAndRespawn(slot int) {
	w := s.workers[slot]
	if w != nil && w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	_ = hooks.Run(s.opts.Hooks, hooks.Event{Type: hooks.ChildKilled, Slot: slot})

	if err := s.spawn(slot); err != nil {
		s.log.Error("respawn failed", slog.Int("slot", slot), slog.String("error", err.Error()))
		return
	}
	_ = hooks.Run(s.opts.Hooks, hooks.Event{Type: hooks.ChildRespawned, Slot: slot})
}

func (s *Supervisor) stopAll() {
	for _, w := range s.workers {
		if w != nil && w.cmd.Process != nil {
			_ = w.cmd.Process.Kill()
		}
	}
}

// Counters returns the current shared bookkeeping snapshot.
func (s *Supervisor) Counters() shm.Counters {
	return s.region.Snapshot()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
