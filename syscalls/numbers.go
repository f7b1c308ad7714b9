package syscalls

// x86_64 resolves syscall names to kernel call numbers on amd64. Adapted
// from a seccomp allow-list table: there the map fed a BPF filter that
// blocks named calls, here the same name→number facts feed the opposite
// use, resolving an entry's name to the number invoke.Invoke traps into.
var x86_64 = map[string]int{
	"read": 0, "write": 1, "open": 2, "close": 3, "stat": 4,
	"fstat": 5, "lstat": 6, "poll": 7, "lseek": 8, "mmap": 9,
	"mprotect": 10, "munmap": 11, "brk": 12, "ioctl": 16,
	"access": 21, "pipe": 22, "select": 23, "sched_yield": 24,
	"dup": 32, "dup2": 33, "pause": 34, "nanosleep": 35,
	"getpid": 39, "socket": 41, "connect": 42, "accept": 43,
	"sendto": 44, "recvfrom": 45, "sendmsg": 46, "recvmsg": 47,
	"shutdown": 48, "bind": 49, "listen": 50, "getsockname": 51,
	"getpeername": 52, "socketpair": 53, "setsockopt": 54,
	"getsockopt": 55, "clone": 56, "fork": 57, "vfork": 58,
	"execve": 59, "exit": 60, "wait4": 61, "kill": 62,
	"uname": 63, "fcntl": 72, "flock": 73, "fsync": 74,
	"ftruncate": 77, "getdents": 78, "getcwd": 79, "chdir": 80,
	"rename": 82, "mkdir": 83, "rmdir": 84, "creat": 85,
	"link": 86, "unlink": 87, "symlink": 88, "readlink": 89,
	"chmod": 90, "fchmod": 91, "chown": 92, "fchown": 93,
	"openat": 257, "mkdirat": 258, "mknodat": 259, "fchownat": 260,
	"newfstatat": 262, "unlinkat": 263, "renameat": 264,
	"linkat": 265, "symlinkat": 266, "readlinkat": 267,
	"fchmodat": 268, "faccessat": 269,
	"memfd_create": 319,
}

// arm64 resolves syscall names to kernel call numbers on arm64.
var arm64 = map[string]int{
	"openat": 56, "close": 57, "read": 63, "write": 64,
	"fstat": 80, "mmap": 222, "mprotect": 226, "munmap": 215,
	"brk": 214, "ioctl": 29, "socket": 198, "connect": 203,
	"accept": 202, "sendto": 206, "recvfrom": 207, "sendmsg": 211,
	"recvmsg": 212, "bind": 200, "listen": 201, "setsockopt": 208,
	"getsockopt": 209, "clone": 220, "execve": 221, "exit": 93,
	"wait4": 260, "kill": 129, "uname": 160, "fcntl": 25,
	"dup": 23, "dup3": 24, "nanosleep": 101, "getpid": 172,
	"unlinkat": 35, "renameat": 38, "memfd_create": 279,
}

// SyscallNumber returns the kernel call number for name on the given
// architecture tag ("amd64" or "arm64"), matching runtime.GOARCH values.
func SyscallNumber(arch, name string) (int, bool) {
	table := x86_64
	if arch == "arm64" {
		table = arm64
	}
	nr, ok := table[name]
	return nr, ok
}
