// Package shm implements spec.md's shared bookkeeping: the process-wide
// region holding global counters, the syscall-table lock, and one syscall
// record per child slot, backed by a single anonymous memory mapping
// shared across the supervisor and every child it spawns.
package shm

import (
	"unsafe"

	"golang.org/x/sys/unix"

	ferrors "trinity-go/errors"
)

// Region is the mapped shared-memory buffer plus its layout. All access to
// header fields, active counters, and records goes through methods on
// Region (or on a Record handle obtained from it) which apply the correct
// atomic operation for that field, never through a sync.Mutex — the lock
// words at offTableLock and recOffLock are raw bytes inside this mapping,
// meaningful to every process sharing it.
type Region struct {
	buf        []byte
	numEntries int
	numSlots   int
	layout     layout
}

// NewAnon allocates a MAP_ANONYMOUS|MAP_SHARED region, usable by a single
// process across its own forked/exec'd children once it arranges to pass
// the mapping down (NewShared below is the concrete mechanism this
// repository uses for that: a memfd-backed mapping whose descriptor
// survives exec via ExtraFiles). NewAnon is primarily used by tests that
// only need one process's view of the region.
func NewAnon(numEntries, numSlots int) (*Region, error) {
	l := computeLayout(numEntries, numSlots)
	buf, err := unix.Mmap(-1, 0, l.totalSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrSharedMemory, "mmap")
	}
	return &Region{buf: buf, numEntries: numEntries, numSlots: numSlots, layout: l}, nil
}

// NewShared allocates the region backed by an anonymous memfd, returning
// both the Region (mapped in this process) and the backing *os.File, whose
// Fd() the supervisor passes to each child via exec.Cmd.ExtraFiles.
func NewShared(numEntries, numSlots int) (*Region, *memfdFile, error) {
	l := computeLayout(numEntries, numSlots)
	f, err := newMemfd(l.totalSize)
	if err != nil {
		return nil, nil, err
	}
	buf, err := unix.Mmap(int(f.Fd()), 0, l.totalSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, ferrors.Wrap(err, ferrors.ErrSharedMemory, "mmap")
	}
	return &Region{buf: buf, numEntries: numEntries, numSlots: numSlots, layout: l}, f, nil
}

// Open maps a region a child inherited via an fd (typically fd 3, from
// ExtraFiles), given the same numEntries/numSlots the supervisor used.
func Open(fd uintptr, numEntries, numSlots int) (*Region, error) {
	l := computeLayout(numEntries, numSlots)
	buf, err := unix.Mmap(int(fd), 0, l.totalSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrSharedMemory, "mmap")
	}
	return &Region{buf: buf, numEntries: numEntries, numSlots: numSlots, layout: l}, nil
}

// Close unmaps the region.
func (r *Region) Close() error {
	if r.buf == nil {
		return nil
	}
	err := unix.Munmap(r.buf)
	r.buf = nil
	if err != nil {
		return ferrors.Wrap(err, ferrors.ErrSharedMemory, "munmap")
	}
	return nil
}

// ActiveCounts returns a []uint32 view (length numEntries*2) directly over
// the shared active-counters bytes. Passed to table.Table.Bind; atomic
// operations on its elements operate on this region's real memory, so they
// remain correct no matter which process performs them.
func (r *Region) ActiveCounts() []uint32 {
	base := (*uint32)(unsafe.Pointer(&r.buf[r.layout.countsOffset]))
	return unsafe.Slice(base, r.numEntries*countsPerEnt)
}

// InitCounts sets every active counter to 1. Call once, from whichever
// process allocates the region, before any child starts.
func (r *Region) InitCounts() {
	counts := r.ActiveCounts()
	for i := range counts {
		counts[i] = 1
	}
}

// TableLock returns a pointer to the shared table-wide lock word, for use
// with table.Table.Deactivate.
func (r *Region) TableLock() *uint32 {
	return (*uint32)(unsafe.Pointer(&r.buf[offTableLock]))
}

// IncTotalDone atomically increments total_syscalls_done and returns the
// new value. Relaxed atomicity per spec.md 4.5: slight races are tolerated.
func (r *Region) IncTotalDone() uint64 {
	return addU64(r.buf, offTotalDone, 1)
}

// IncSuccesses atomically increments the success counter.
func (r *Region) IncSuccesses() uint64 {
	return addU64(r.buf, offSuccesses, 1)
}

// IncFailures atomically increments the failure counter.
func (r *Region) IncFailures() uint64 {
	return addU64(r.buf, offFailures, 1)
}

// Counters is a point-in-time snapshot of the shared header counters.
type Counters struct {
	TotalDone uint64
	Successes uint64
	Failures  uint64
}

// Snapshot reads the three header counters without any locking (spec.md 8:
// successes+failures <= total_syscalls_done is only guaranteed eventually
// consistent across processes).
func (r *Region) Snapshot() Counters {
	return Counters{
		TotalDone: loadU64(r.buf, offTotalDone),
		Successes: loadU64(r.buf, offSuccesses),
		Failures:  loadU64(r.buf, offFailures),
	}
}

// Slot returns the Record handle for the given child slot index.
func (r *Region) Slot(i int) (*Record, error) {
	if i < 0 || i >= r.numSlots {
		return nil, ferrors.ErrSlotOutOfRange
	}
	off := r.layout.recordsOffset + i*recordSize
	return &Record{buf: r.buf[off : off+recordSize]}, nil
}

// NumSlots returns the number of per-child record slots.
func (r *Region) NumSlots() int {
	return r.numSlots
}
