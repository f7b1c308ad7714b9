package shm

// Record is a handle onto one child's syscall record: the chosen index,
// six argument words, the do32bit flag, a timestamp, an operation counter,
// the post-call errno/retval, and a state, all living in shared memory
// behind a per-record spinlock (spec.md 3).
type Record struct {
	buf []byte // recordSize bytes, a window into the Region's buffer
}

// Lock acquires the per-record spinlock via CAS, exactly like the table
// lock in table.Table.Deactivate: a sync.Mutex has no defined meaning
// across the process boundary this record is shared over, a CAS loop on
// the shared byte does.
func (r *Record) Lock() {
	for !casU32(r.buf, recOffLock, 0, 1) {
	}
}

// Unlock releases the per-record spinlock.
func (r *Record) Unlock() {
	storeU32(r.buf, recOffLock, 0)
}

// State returns the record's current state with a single atomic load, so
// it can be called without the lock. The supervisor's poll loop still
// takes the record lock to read it together with the timestamp.
func (r *Record) State() uint32 {
	return loadU32(r.buf, recOffState)
}

// SetState sets the record's state. The child sets PREP, AFTER and
// GOING_AWAY under the record lock; it writes BEFORE and DONE without the
// lock, being the record's sole writer.
func (r *Record) SetState(s uint32) {
	storeU32(r.buf, recOffState, s)
}

// NR returns the chosen syscall dense index.
func (r *Record) NR() uint32 {
	return loadU32(r.buf, recOffNr)
}

// SetNR sets the chosen syscall dense index.
func (r *Record) SetNR(nr uint32) {
	storeU32(r.buf, recOffNr, nr)
}

// Args returns the six argument words.
func (r *Record) Args() [6]uint64 {
	var a [6]uint64
	for i := range a {
		a[i] = loadU64(r.buf, recOffA+i*8)
	}
	return a
}

// SetArgs writes the six argument words.
func (r *Record) SetArgs(a [6]uint64) {
	for i, v := range a {
		storeU64(r.buf, recOffA+i*8, v)
	}
}

// Do32Bit returns whether this call uses the secondary ABI.
func (r *Record) Do32Bit() bool {
	return loadU32(r.buf, recOffDo32Bit) != 0
}

// SetDo32Bit sets the ABI flag.
func (r *Record) SetDo32Bit(v bool) {
	var u uint32
	if v {
		u = 1
	}
	storeU32(r.buf, recOffDo32Bit, u)
}

// Timestamp returns the wall-clock (seconds, nanoseconds) the supervisor
// polls to detect hangs.
func (r *Record) Timestamp() (sec int64, nsec int64) {
	return loadI64(r.buf, recOffTvSec), loadI64(r.buf, recOffTvNsec)
}

// SetTimestamp stamps the current wall clock.
func (r *Record) SetTimestamp(sec, nsec int64) {
	storeI64(r.buf, recOffTvSec, sec)
	storeI64(r.buf, recOffTvNsec, nsec)
}

// OpNr returns the per-child monotone operation counter.
func (r *Record) OpNr() uint64 {
	return loadU64(r.buf, recOffOpNr)
}

// IncOpNr increments the operation counter and returns the new value.
func (r *Record) IncOpNr() uint64 {
	return addU64(r.buf, recOffOpNr, 1)
}

// ErrnoPost returns the errno recorded after the trap.
func (r *Record) ErrnoPost() int32 {
	return loadI32(r.buf, recOffErrnoPost)
}

// SetErrnoPost records the post-trap errno.
func (r *Record) SetErrnoPost(e int32) {
	storeI32(r.buf, recOffErrnoPost, e)
}

// Retval returns the trap's return value.
func (r *Record) Retval() int64 {
	return loadI64(r.buf, recOffRetval)
}

// SetRetval records the trap's return value.
func (r *Record) SetRetval(v int64) {
	storeI64(r.buf, recOffRetval, v)
}

// Snapshot captures every field of the record in one (unlocked) read, for
// use as the child's private `previous` copy.
type Snapshot struct {
	NR        uint32
	Args      [6]uint64
	Do32Bit   bool
	TvSec     int64
	TvNsec    int64
	OpNr      uint64
	ErrnoPost int32
	Retval    int64
	State     uint32
}

// Snapshot copies every field of the record.
func (r *Record) Snapshot() Snapshot {
	sec, nsec := r.Timestamp()
	return Snapshot{
		NR:        r.NR(),
		Args:      r.Args(),
		Do32Bit:   r.Do32Bit(),
		TvSec:     sec,
		TvNsec:    nsec,
		OpNr:      r.OpNr(),
		ErrnoPost: r.ErrnoPost(),
		Retval:    r.Retval(),
		State:     r.State(),
	}
}
