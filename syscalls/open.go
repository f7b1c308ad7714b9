package syscalls

import (
	"golang.org/x/sys/unix"

	"trinity-go/table"
)

// extraOpenFlags is the full O_* bit list the open/openat per-entry
// sanitizers OR extra entropy from, ported verbatim from the reference's
// o_flags[] table.
var extraOpenFlags = []uint64{
	uint64(unix.O_EXCL), uint64(unix.O_NOCTTY), uint64(unix.O_TRUNC), uint64(unix.O_APPEND),
	uint64(unix.O_NONBLOCK), uint64(unix.O_SYNC), uint64(unix.O_ASYNC), uint64(unix.O_DIRECTORY),
	uint64(unix.O_NOFOLLOW), uint64(unix.O_CLOEXEC), uint64(unix.O_DIRECT), uint64(unix.O_NOATIME),
	uint64(unix.O_PATH), uint64(unix.O_DSYNC), uint64(unix.O_LARGEFILE), uint64(unix.O_TMPFILE),
}

// accessModeValues is the `open`/`openat` flags argument's enumerated-op
// value list: exactly one of these is chosen per call before the sanitizer
// ORs additional bits in.
var accessModeValues = []uint64{
	uint64(unix.O_RDONLY), uint64(unix.O_WRONLY), uint64(unix.O_RDWR), uint64(unix.O_CREAT),
}

// orExtraFlags implements the reference's get_o_flags() contract, moved
// here so both sanitise_open and sanitise_openat share it byte for byte.
// word points at the argument to OR into; the caller already knows which
// index that is.
func orExtraFlags(word *uint64, intn func(n int) int) {
	num := len(extraOpenFlags)
	bits := intn(num + 1)
	var mask uint64
	for i := 0; i < bits; i++ {
		mask |= extraOpenFlags[intn(num)]
	}
	*word |= mask
}

// newOpenEntry builds the `open` table entry: filename, flags (enumerated
// access mode), mode bits. The per-entry sanitizer ORs extra O_* bits into
// a2 while the low access-mode bits the generic pass set are preserved,
// since OR only ever adds bits.
func newOpenEntry(intn func(n int) int) *table.Entry {
	return &table.Entry{
		Name: "open",
		Args: []table.Arg{
			{Name: "filename", Kind: table.KindPathname},
			{Name: "flags", Kind: table.KindEnumeratedOp, Values: accessModeValues},
			{Name: "mode", Kind: table.KindModeBits},
		},
		Sanitize: func(a *[6]uint64) {
			orExtraFlags(&a[1], intn)
		},
	}
}

// newOpenatEntry builds the `openat` table entry: dfd, filename, flags,
// mode, with NEED_ALARM set per the reference (openat declares it where
// open does not).
func newOpenatEntry(intn func(n int) int) *table.Entry {
	return &table.Entry{
		Name: "openat",
		Args: []table.Arg{
			{Name: "dfd", Kind: table.KindFD},
			{Name: "filename", Kind: table.KindPathname},
			{Name: "flags", Kind: table.KindEnumeratedOp, Values: accessModeValues},
			{Name: "mode", Kind: table.KindModeBits},
		},
		Flags: table.NeedAlarm,
		Sanitize: func(a *[6]uint64) {
			orExtraFlags(&a[2], intn)
		},
	}
}
