package shm

import (
	"os"

	"golang.org/x/sys/unix"

	ferrors "trinity-go/errors"
)

// memfdFile wraps the *os.File backing a memfd-based shared region, kept
// open so its descriptor can be inherited by children across exec (via
// exec.Cmd.ExtraFiles) for as long as the supervisor needs it mapped.
type memfdFile struct {
	*os.File
}

// newMemfd creates an anonymous memfd of the given size. Grounded on the
// teacher's self-re-exec pattern for handing state down to a re-exec'd
// child: here the handed-down state is a shared-memory descriptor instead
// of environment variables.
func newMemfd(size int) (*memfdFile, error) {
	fd, err := unix.MemfdCreate("trinity-shm", 0)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.ErrSharedMemory, "memfd_create")
	}
	f := os.NewFile(uintptr(fd), "trinity-shm")
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, ferrors.Wrap(err, ferrors.ErrSharedMemory, "ftruncate")
	}
	return &memfdFile{File: f}, nil
}
