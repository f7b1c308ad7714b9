// Package invoke is the single narrow capability that performs the actual
// kernel trap (spec.md 4.7). Nothing else in this repository issues a raw
// syscall; every other package manipulates words and leaves the trap itself
// to Invoke.
package invoke

import (
	"golang.org/x/sys/unix"

	"trinity-go/table"
)

// syscallOffset accounts for architectures (IA64, MIPS) whose Linux syscall
// numbers start above zero, leaving room for other ABIs below. x86_64 and
// arm64, the only arches this repository targets, both use offset 0.
const syscallOffset = 0

// Invoke performs the kernel trap for call nr with six word-sized
// arguments, selecting the ABI variant named by abi. It is the only place
// in the core that touches a raw syscall instruction.
//
// The secondary ABI is a no-op returning (0, 0) wherever it is not
// implemented, which on this repository's supported architectures is
// everywhere: x86_64 and arm64 have no 32-bit compatibility trampoline
// wired up here. A platform that does gains one by replacing this branch,
// not by touching any caller.
func Invoke(nr int, args [6]uint64, abi table.ABI) (retval int64, errno unix.Errno) {
	if abi == table.Secondary {
		return invokeSecondary(nr, args)
	}
	return invokeNative(nr, args)
}

// invokeNative issues the raw syscall and normalizes its result to the
// libc syscall() convention spec.md 6 describes: on error, retval is the
// all-ones sentinel (-1) with the errno channel set, rather than the raw
// negative-errno word RawSyscall6 itself returns.
func invokeNative(nr int, a [6]uint64) (int64, unix.Errno) {
	call := uintptr(nr + syscallOffset)
	r1, _, errno := unix.RawSyscall6(call,
		uintptr(a[0]), uintptr(a[1]), uintptr(a[2]),
		uintptr(a[3]), uintptr(a[4]), uintptr(a[5]))
	if errno != 0 {
		return -1, errno
	}
	return int64(r1), 0
}

// invokeSecondary is the 32-bit-on-64-bit trampoline. Neither x86_64 nor
// arm64 builds of this repository implement one, matching the reference's
// ARCH_IS_BIARCH#else branch which hardcodes the same no-op.
func invokeSecondary(nr int, a [6]uint64) (int64, unix.Errno) {
	return 0, 0
}
