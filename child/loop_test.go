package child

import (
	"testing"

	"trinity-go/argtype"
	"trinity-go/randsrc"
	"trinity-go/shm"
	"trinity-go/table"
)

func newTestChild(t *testing.T, entries []*table.Entry) (*Child, *table.Table, *shm.Region) {
	t.Helper()

	tbl := table.New()
	for _, e := range entries {
		if err := tbl.Register(e); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	region, err := shm.NewAnon(tbl.Count(), 1)
	if err != nil {
		t.Fatalf("NewAnon: %v", err)
	}
	t.Cleanup(func() { region.Close() })

	region.InitCounts()
	if err := tbl.Bind(region.ActiveCounts()); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	pools, err := argtype.NewPools(t.TempDir())
	if err != nil {
		t.Fatalf("NewPools: %v", err)
	}
	t.Cleanup(pools.Close)

	src := randsrc.NewSeeded(42)
	c := New(tbl, region, 0, src, pools, table.Native)
	return c, tbl, region
}

const bogusSyscallNR = 0xFFFF

func TestChild_ENOSYSDeactivatesEntry(t *testing.T) {
	entry := &table.Entry{
		Name: "bogus",
		NR:   bogusSyscallNR,
		Args: []table.Arg{{Name: "a", Kind: table.KindOpaqueInt}},
	}
	c, tbl, _ := newTestChild(t, []*table.Entry{entry})

	cont, err := c.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !cont {
		t.Fatal("expected continue=true after one iteration")
	}

	if got := tbl.Active(0, table.Native); got != 0 {
		t.Errorf("active_number = %d, want 0", got)
	}

	if _, err := tbl.PickActive(table.Native, c.src.Intn); err == nil {
		t.Error("expected PickActive to report empty after deactivation")
	}
}

func TestChild_IgnoreENOSYSKeepsEntryActive(t *testing.T) {
	entry := &table.Entry{
		Name:  "bogus-ignored",
		NR:    bogusSyscallNR,
		Flags: table.IgnoreENOSYS,
		Args:  []table.Arg{{Name: "a", Kind: table.KindOpaqueInt}},
	}
	c, tbl, _ := newTestChild(t, []*table.Entry{entry})

	for i := 0; i < 100; i++ {
		if _, err := c.RunOnce(); err != nil {
			t.Fatalf("RunOnce iteration %d: %v", i, err)
		}
	}

	if got := tbl.Active(0, table.Native); got != 1 {
		t.Errorf("active_number = %d, want 1 after 100 ignored-ENOSYS iterations", got)
	}
}

func TestChild_OpNrAdvancesMonotonically(t *testing.T) {
	entry := &table.Entry{
		Name:  "noop",
		NR:    bogusSyscallNR,
		Flags: table.IgnoreENOSYS,
		Args:  []table.Arg{{Name: "a", Kind: table.KindOpaqueInt}},
	}
	c, _, region := newTestChild(t, []*table.Entry{entry})

	rec, err := region.Slot(0)
	if err != nil {
		t.Fatalf("Slot: %v", err)
	}

	var last uint64
	for i := 0; i < 50; i++ {
		if _, err := c.RunOnce(); err != nil {
			t.Fatalf("RunOnce iteration %d: %v", i, err)
		}
		cur := rec.OpNr()
		if cur <= last {
			t.Fatalf("iteration %d: op_nr=%d did not advance past %d", i, cur, last)
		}
		if rec.State() != shm.StateDone {
			t.Errorf("iteration %d: state=%d, want StateDone", i, rec.State())
		}
		last = cur
	}
}

func TestChild_CountersStayConsistent(t *testing.T) {
	entry := &table.Entry{
		Name:  "noop",
		NR:    bogusSyscallNR,
		Flags: table.IgnoreENOSYS,
		Args:  []table.Arg{{Name: "a", Kind: table.KindOpaqueInt}},
	}
	c, _, region := newTestChild(t, []*table.Entry{entry})

	for i := 0; i < 20; i++ {
		if _, err := c.RunOnce(); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
	}

	snap := region.Snapshot()
	if snap.Successes+snap.Failures > snap.TotalDone {
		t.Errorf("successes(%d)+failures(%d) > total_done(%d)", snap.Successes, snap.Failures, snap.TotalDone)
	}
}
