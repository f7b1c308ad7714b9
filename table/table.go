package table

import (
	"sync/atomic"

	ferrors "trinity-go/errors"
)

// ABI selects which active_number half an operation addresses.
type ABI int

const (
	// Native is the process's native word-size ABI.
	Native ABI = 0
	// Secondary is the compatibility ABI (e.g. 32-bit on a 64-bit kernel).
	Secondary ABI = 1
)

const numABIs = 2

// Table is the ordered, append-only registry of syscall entries. The
// entries themselves are process-local and identically constructed by every
// child at startup; only the active counters are shared across processes,
// via a []uint32 bound in with Bind.
type Table struct {
	entries []*Entry
	byName  map[string]int
	counts  []uint32 // len == len(entries)*numABIs, shared memory when bound
}

// New creates an empty table.
func New() *Table {
	return &Table{byName: make(map[string]int)}
}

// Register appends a new entry, assigning it the next dense index. The
// entry's Index field is overwritten to match. Register must be called
// identically (same names, same order) in every process before Bind.
func (t *Table) Register(e *Entry) error {
	if _, exists := t.byName[e.Name]; exists {
		return ferrors.WrapWithEntry(nil, ferrors.ErrAlreadyExists, "register", e.Name)
	}
	if len(e.Args) > 6 {
		return ferrors.WrapWithEntry(nil, ferrors.ErrInvalidConfig, "register", e.Name)
	}
	e.Index = len(t.entries)
	t.entries = append(t.entries, e)
	t.byName[e.Name] = e.Index
	return nil
}

// Count returns the number of registered entries.
func (t *Table) Count() int {
	return len(t.entries)
}

// EntryAt returns the entry at the given dense index.
func (t *Table) EntryAt(i int) (*Entry, error) {
	if i < 0 || i >= len(t.entries) {
		return nil, ferrors.ErrEntryNotFound
	}
	return t.entries[i], nil
}

// ByName returns the entry registered under name.
func (t *Table) ByName(name string) (*Entry, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, ferrors.ErrEntryNotFound
	}
	return t.entries[i], nil
}

// Bind attaches the shared active-counters array. counts must have length
// Count()*2 and must back memory shared across every process using this
// table (see shm.Region.ActiveCounts). InitCounts should be called once,
// by whichever process allocates the shared region, before any child Binds.
func (t *Table) Bind(counts []uint32) error {
	if len(counts) != len(t.entries)*numABIs {
		return ferrors.New(ferrors.ErrTable, "bind", "counts length mismatch")
	}
	t.counts = counts
	return nil
}

// InitCounts sets every entry's active_number to 1 for both ABIs in the
// given shared counters slice. Call this once before any child starts.
func InitCounts(counts []uint32, entryCount int) {
	for i := 0; i < entryCount*numABIs; i++ {
		atomic.StoreUint32(&counts[i], 1)
	}
}

func (t *Table) slot(index int, abi ABI) *uint32 {
	return &t.counts[index*numABIs+int(abi)]
}

// Active reports the current active_number for entry index under abi.
func (t *Table) Active(index int, abi ABI) uint32 {
	return atomic.LoadUint32(t.slot(index, abi))
}

// PickActive uniformly chooses an index whose entry has active_number > 0
// for the given ABI. It retries if the chosen index's counter was
// concurrently decremented to zero by another process (the race spec.md's
// selector must tolerate), and returns ErrTableEmpty if no active index can
// be found after scanning the whole table.
func (t *Table) PickActive(abi ABI, intn func(n int) int) (int, error) {
	n := len(t.entries)
	if n == 0 {
		return 0, ferrors.ErrTableEmpty
	}

	const maxRetries = 64
	for attempt := 0; attempt < maxRetries; attempt++ {
		i := intn(n)
		if atomic.LoadUint32(t.slot(i, abi)) > 0 {
			return i, nil
		}
	}

	// Fall back to a linear scan: the retry loop above is the fast path for
	// a table that is mostly active; once entries start deactivating this
	// guarantees we still find a live one if any exist.
	for i := 0; i < n; i++ {
		if atomic.LoadUint32(t.slot(i, abi)) > 0 {
			return i, nil
		}
	}
	return 0, ferrors.ErrTableEmpty
}

// tableLockWord is the shared uint32 this Table uses for its
// decrement-then-check-zero critical section. It is bound separately from
// the per-entry counters because it guards the table as a whole, not one
// entry (spec.md 4.5 distinguishes the two lock scopes explicitly).
type tableLockWord = uint32

// Deactivate implements spec.md 4.8: take the table lock, decrement the
// ABI-specific active count if still positive, release. Returns true if this
// call was the one that decremented (so the caller can emit a notice), false
// if another process had already brought it to zero.
func (t *Table) Deactivate(lock *tableLockWord, index int, abi ABI) (decremented bool, err error) {
	entry, err := t.EntryAt(index)
	if err != nil {
		return false, err
	}
	if entry.HasFlag(IgnoreENOSYS) {
		return false, nil
	}

	lockSpin(lock)
	defer unlockSpin(lock)

	slot := t.slot(index, abi)
	for {
		cur := atomic.LoadUint32(slot)
		if cur == 0 {
			return false, nil
		}
		if atomic.CompareAndSwapUint32(slot, cur, cur-1) {
			return true, nil
		}
	}
}

// lockSpin/unlockSpin implement a cross-process spinlock on a uint32 word
// living in shared memory via CAS. A sync.Mutex cannot be used here: its
// correctness depends on the Go runtime's internal futex/semaphore state,
// which is not meaningful across processes that only share the backing
// bytes, whereas a CAS loop operates directly on the hardware memory
// location and is therefore correct regardless of which process issues it.
func lockSpin(word *uint32) {
	for !atomic.CompareAndSwapUint32(word, 0, 1) {
		// busy-wait; critical sections guarded by this lock are bounded to a
		// handful of loads/stores (spec.md 5: "locks are short, bounded
		// critical sections").
	}
}

func unlockSpin(word *uint32) {
	atomic.StoreUint32(word, 0)
}
