// Package child implements the per-child syscall execution loop: the state
// machine that drives one call from PREP through BEFORE, the kernel trap,
// AFTER, and DONE, coordinating with the supervisor via the shared record's
// state and timestamp fields.
package child

import (
	"log/slog"
	"os"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"trinity-go/argtype"
	ferrors "trinity-go/errors"
	"trinity-go/invoke"
	"trinity-go/logging"
	"trinity-go/randsrc"
	"trinity-go/sanitize"
	"trinity-go/shm"
	"trinity-go/table"
)

// Child drives the execution loop for one supervisor-assigned slot. Each
// Child is owned by exactly one OS process; nothing here is safe to share
// across goroutines running in different processes, only the Region
// underneath it is.
type Child struct {
	tbl    *table.Table
	region *shm.Region
	slot   int
	src    *randsrc.Source
	pools  *argtype.Pools
	abi    table.ABI
	log    *slog.Logger

	expectedUID int
	previous    shm.Snapshot
}

// New builds a Child bound to the given table, region, and slot. abi
// selects which ABI half this child exercises for its whole lifetime; the
// reference spawns separate children for the native and secondary ABI
// rather than switching per iteration.
func New(tbl *table.Table, region *shm.Region, slot int, src *randsrc.Source, pools *argtype.Pools, abi table.ABI) *Child {
	return &Child{
		tbl:         tbl,
		region:      region,
		slot:        slot,
		src:         src,
		pools:       pools,
		abi:         abi,
		log:         logging.WithChild(logging.Default(), slot),
		expectedUID: os.Getuid(),
	}
}

// RunOnce performs exactly one PREP->BEFORE->AFTER->DONE iteration and
// reports whether the child may continue. A false return with a nil error
// means the table is exhausted for this ABI, or that an EXTRA_FORK call
// abandoned this child's generation; a non-nil error means an
// internal invariant was violated and the supervisor should restart this
// child (spec.md 7).
func (c *Child) RunOnce() (bool, error) {
	rec, err := c.region.Slot(c.slot)
	if err != nil {
		return false, err
	}

	entry, index, err := c.prep(rec)
	if err != nil {
		if ferrors.IsKind(err, ferrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if entry.HasFlag(table.ExtraFork) {
		return c.runExtraFork(rec, entry)
	}

	c.before(rec, entry)
	retval, errno := c.trap(rec, entry)
	c.after(rec, retval, errno)
	c.finish(rec, entry, index, retval, errno)

	return true, nil
}

// prep implements UNUSED->PREP: pick an active entry, lock the record,
// draw six random words, sanitize them, unlock.
func (c *Child) prep(rec *shm.Record) (*table.Entry, int, error) {
	index, err := c.tbl.PickActive(c.abi, c.src.Intn)
	if err != nil {
		return nil, 0, err
	}
	entry, err := c.tbl.EntryAt(index)
	if err != nil {
		return nil, 0, err
	}

	var a [6]uint64
	for i := range a {
		a[i] = c.src.Uint64()
	}

	rec.Lock()
	rec.SetState(shm.StatePrep)
	rec.SetNR(uint32(index))
	rec.SetDo32Bit(c.abi == table.Secondary)

	if err := sanitize.Generic(entry, &a, c.src, c.pools); err != nil {
		rec.Unlock()
		return nil, 0, err
	}
	sanitize.Entry(entry, &a)
	rec.SetArgs(a)
	rec.Unlock()

	return entry, index, nil
}

// before implements PREP->BEFORE: emit the prefix line, arm the alarm if
// requested, and flip the record's state. No lock is required for the
// state write here: the child is the sole writer until BEFORE completes
// and the supervisor only reads state+tv under the record lock.
func (c *Child) before(rec *shm.Record, entry *table.Entry) {
	a := rec.Args()
	c.log.Debug("syscall prefix",
		slog.String("syscall", entry.Name),
		slog.Any("args", a),
		slog.Bool("do32bit", rec.Do32Bit()),
	)
	if entry.HasFlag(table.NeedAlarm) {
		armAlarm(1)
	}
	rec.SetState(shm.StateBefore)
}

// trap performs the kernel call itself via invoke.Invoke, resolving any
// pathname-kind argument from its pool index to a real pointer first. The
// resolved byte pointers are kept alive until the trap returns so the
// garbage collector cannot reclaim them while the kernel holds the address.
func (c *Child) trap(rec *shm.Record, entry *table.Entry) (int64, unix.Errno) {
	a := rec.Args()
	var keepAlive []*byte
	for i, arg := range entry.Args {
		if i >= 6 || arg.Kind != table.KindPathname {
			continue
		}
		path := c.pools.Pathname(a[i])
		ptr, err := unix.BytePtrFromString(path)
		if err != nil {
			continue
		}
		keepAlive = append(keepAlive, ptr)
		a[i] = uint64(uintptr(unsafe.Pointer(ptr)))
	}

	retval, errno := invoke.Invoke(entry.NR, a, c.abi)
	runtime.KeepAlive(keepAlive)
	return retval, errno
}

// after implements BEFORE->AFTER: bump the global attempt counter, then
// under the record lock stamp the timestamp, advance op_nr, record
// errno/retval, and flip state.
func (c *Child) after(rec *shm.Record, retval int64, errno unix.Errno) {
	c.region.IncTotalDone()

	rec.Lock()
	now := time.Now()
	rec.SetTimestamp(now.Unix(), int64(now.Nanosecond()))
	rec.IncOpNr()
	rec.SetErrnoPost(int32(errno))
	rec.SetRetval(retval)
	rec.SetState(shm.StateAfter)
	rec.Unlock()
}

// armAlarm arms (seconds>0) or cancels (seconds==0) a real-time alarm that
// delivers SIGALRM around the trap, per NEED_ALARM. Built on Setitimer
// rather than the classic alarm(2) wrapper: alarm(2) has no syscall number
// on arm64, while setitimer's ITIMER_REAL is available on every Linux arch
// this repository targets and is exactly what alarm(2) is implemented in
// terms of.
func armAlarm(seconds int64) {
	it := unix.Itimerval{
		Value: unix.Timeval{Sec: seconds, Usec: 0},
	}
	_ = unix.Setitimer(unix.ITIMER_REAL, &it, nil)
}

// isCallError reports whether retval is the kernel's error sentinel
// (all-ones word, per spec.md 6).
func isCallError(retval int64) bool {
	return retval == -1
}

// finish implements AFTER->DONE: classify success/failure, emit the
// postfix, apply deactivation policy, run the post hook, snapshot into
// previous, check for UID drift, and mark the record DONE. The argument
// generators draw from the child's long-lived Pools and make no
// per-iteration allocations, so nothing is released here.
func (c *Child) finish(rec *shm.Record, entry *table.Entry, index int, retval int64, errno unix.Errno) {
	if entry.HasFlag(table.NeedAlarm) {
		armAlarm(0)
	}

	if isCallError(retval) {
		c.region.IncFailures()
	} else {
		c.region.IncSuccesses()
	}

	c.log.Debug("syscall postfix",
		slog.String("syscall", entry.Name),
		slog.Int64("retval", retval),
		slog.Int("errno", int(errno)),
	)

	if isCallError(retval) && errno == unix.ENOSYS {
		decremented, err := c.tbl.Deactivate(c.region.TableLock(), index, c.abi)
		if err == nil && decremented {
			c.log.Info("deactivating syscall, returned ENOSYS",
				slog.String("syscall", entry.Name),
				slog.Int("call_nr", entry.NR),
				slog.Bool("do32bit", c.abi == table.Secondary),
			)
		}
	}

	if entry.Post != nil {
		entry.Post(retval, int32(errno))
	}

	c.previous = rec.Snapshot()

	c.checkUIDDrift()

	rec.SetState(shm.StateDone)
}

// checkUIDDrift detects a syscall that changed this process's privileges
// out from under it (e.g. a successful setuid-family call with unexpected
// arguments) and restores the child's expected identity. Grounded on the
// reference's check_uid(), whose sole job is noticing and correcting this.
func (c *Child) checkUIDDrift() {
	if cur := os.Getuid(); cur != c.expectedUID {
		c.log.Warn("uid drift detected, restoring",
			slog.Int("expected", c.expectedUID),
			slog.Int("observed", cur),
		)
		_ = unix.Setuid(c.expectedUID)
	}
}

// Previous returns the snapshot of the most recently completed record.
func (c *Child) Previous() shm.Snapshot {
	return c.previous
}

// runExtraFork implements the EXTRA_FORK throwaway-process path for calls
// that might replace this process's image (the exec family). The
// reference forks, runs the call in the child, and has the parent sleep
// 1s then SIGKILL it unconditionally before abandoning the generation.
//
// Go cannot safely raw-fork() a multi-threaded runtime without an
// immediate exec(), so this performs the trap in-process (the generation
// is abandoned either way: no shipped entry enables EXTRA_FORK, and a
// successful exec-family call would have replaced the image regardless
// of which process ran it). The record is marked GOING_AWAY rather than
// DONE so the supervisor can tell this apart from a clean completion, and
// RunOnce reports "stop" for this child.
func (c *Child) runExtraFork(rec *shm.Record, entry *table.Entry) (bool, error) {
	c.before(rec, entry)
	retval, errno := c.trap(rec, entry)

	rec.Lock()
	rec.SetRetval(retval)
	rec.SetErrnoPost(int32(errno))
	rec.SetState(shm.StateGoingAway)
	rec.Unlock()

	c.log.Info("extra_fork call returned, abandoning generation",
		slog.String("syscall", entry.Name),
		slog.Int64("retval", retval),
	)
	return false, nil
}
