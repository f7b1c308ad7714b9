// Package table implements the syscall-table model: an ordered, append-only
// registry of syscall entries, each carrying immutable metadata plus a
// runtime activation counter that lives in shared memory.
package table

// ArgKind tags the declared kind of one argument slot. The execution loop
// never switches on a concrete argument type; it only knows the kind tag and
// dispatches to the argtype registry.
type ArgKind int

const (
	// KindIgnored means the slot is unused by this entry; the generic
	// sanitizer leaves its random draw untouched.
	KindIgnored ArgKind = iota
	// KindPathname is a pointer into a pool of pre-allocated path buffers.
	KindPathname
	// KindFD is an index into the child's open-FD pool.
	KindFD
	// KindOpaqueInt is any 64-bit value with no further structure.
	KindOpaqueInt
	// KindBitflagSet is the OR of k values drawn with replacement from Values.
	KindBitflagSet
	// KindEnumeratedOp is exactly one value chosen uniformly from Values.
	KindEnumeratedOp
	// KindModeBits is a random value within the 12-bit permission space.
	KindModeBits
)

// Flag bits recognized on an Entry.
type Flag uint32

const (
	// NeedAlarm arms a 1-second alarm around the trap.
	NeedAlarm Flag = 1 << iota
	// IgnoreENOSYS suppresses deactivation on the "no such call" sentinel.
	IgnoreENOSYS
	// ExtraFork invokes the call from a throwaway process; off by default
	// on every shipped entry, matching the reference's disabled path.
	ExtraFork
)

// Arg declares one argument slot's kind and, for list-driven kinds, the
// constant value list the generator draws from.
type Arg struct {
	Name   string
	Kind   ArgKind
	Values []uint64
}

// Sanitizer refines the six raw words an entry was given, in place.
type Sanitizer func(a *[6]uint64)

// PostHook inspects the outcome of a completed call and may update
// entry-local state (e.g. an internal counter used only for diagnostics).
type PostHook func(retval int64, errnoPost int32)

// Entry is the immutable descriptor of one syscall. It never changes after
// registration; the only thing that mutates afterward is the per-ABI
// active_number, which lives in the table's shared counters array and is
// addressed by Index, not stored here.
type Entry struct {
	Name     string
	Index    int
	NR       int // kernel syscall number, native ABI
	Args     []Arg
	Flags    Flag
	Sanitize Sanitizer
	Post     PostHook
}

// HasFlag reports whether f is set on the entry.
func (e *Entry) HasFlag(f Flag) bool {
	return e.Flags&f != 0
}
