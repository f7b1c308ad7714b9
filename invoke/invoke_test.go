package invoke

import (
	"testing"

	"golang.org/x/sys/unix"

	"trinity-go/table"
)

func TestInvoke_SecondaryABIIsNoOp(t *testing.T) {
	retval, errno := Invoke(int(unix.SYS_GETPID), [6]uint64{1, 2, 3, 4, 5, 6}, table.Secondary)
	if retval != 0 {
		t.Errorf("retval = %d, want 0", retval)
	}
	if errno != 0 {
		t.Errorf("errno = %v, want 0", errno)
	}
}

func TestInvoke_NativeGetpid(t *testing.T) {
	retval, errno := Invoke(int(unix.SYS_GETPID), [6]uint64{}, table.Native)
	if errno != 0 {
		t.Fatalf("unexpected errno: %v", errno)
	}
	if retval <= 0 {
		t.Errorf("retval = %d, want a positive pid", retval)
	}
}

func TestInvoke_NativeInvalidCallReturnsENOSYS(t *testing.T) {
	const bogusNR = 0xFFFF
	_, errno := Invoke(bogusNR, [6]uint64{}, table.Native)
	if errno != unix.ENOSYS {
		t.Errorf("errno = %v, want ENOSYS", errno)
	}
}
