package sanitize

import (
	"testing"

	"golang.org/x/sys/unix"

	"trinity-go/argtype"
	"trinity-go/randsrc"
	"trinity-go/syscalls"
	"trinity-go/table"
)

func TestEntry_OpenSanitizerPreservesAccessBits(t *testing.T) {
	src := randsrc.NewSeeded(42)
	tbl, err := syscalls.Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	entry, err := tbl.ByName("open")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}

	const oWronly = 0x1
	var extraSeen uint64
	for i := 0; i < 1000; i++ {
		a := [6]uint64{0, oWronly, 0, 0, 0, 0}
		Entry(entry, &a)

		if a[1]&0x3 != oWronly {
			t.Fatalf("low access-mode bits not preserved: a2=%#x", a[1])
		}
		extraSeen |= a[1] &^ 0x3
	}

	// every extra bit set across all trials must come from the declared list
	extraOpenFlags := []uint64{
		uint64(unix.O_EXCL), uint64(unix.O_NOCTTY), uint64(unix.O_TRUNC), uint64(unix.O_APPEND),
		uint64(unix.O_NONBLOCK), uint64(unix.O_SYNC), uint64(unix.O_ASYNC), uint64(unix.O_DIRECTORY),
		uint64(unix.O_NOFOLLOW), uint64(unix.O_CLOEXEC), uint64(unix.O_DIRECT), uint64(unix.O_NOATIME),
		uint64(unix.O_PATH), uint64(unix.O_DSYNC), uint64(unix.O_LARGEFILE), uint64(unix.O_TMPFILE),
	}
	var allExtra uint64
	for _, v := range extraOpenFlags {
		allExtra |= v
	}
	if extraSeen&^allExtra != 0 {
		t.Fatalf("sanitizer introduced bits outside the declared O_* list: %#x", extraSeen&^allExtra)
	}
}

func TestGeneric_SkipsIgnoredSlots(t *testing.T) {
	src := randsrc.NewSeeded(1)
	pools, _ := argtype.NewPools(t.TempDir())
	defer pools.Close()

	entry := &table.Entry{
		Name: "probe",
		Args: []table.Arg{
			{Name: "ignored", Kind: table.KindIgnored},
			{Name: "n", Kind: table.KindOpaqueInt},
		},
	}
	a := [6]uint64{0xDEADBEEF, 0, 0, 0, 0, 0}
	if err := Generic(entry, &a, src, pools); err != nil {
		t.Fatalf("Generic: %v", err)
	}
	if a[0] != 0xDEADBEEF {
		t.Errorf("ignored slot was overwritten: %#x", a[0])
	}
}
