package argtype

import (
	"testing"

	"trinity-go/randsrc"
	"trinity-go/table"
)

func TestBitflags_ZeroProbability(t *testing.T) {
	list := []uint64{1, 2, 4, 8}
	src := randsrc.NewSeeded(1)

	zeros := 0
	const trials = 100000
	for i := 0; i < trials; i++ {
		v, err := bitflags(src, list)
		if err != nil {
			t.Fatalf("bitflags: %v", err)
		}
		if v == 0 {
			zeros++
		}
	}

	// k=0 has probability 1/(N+1) for N=4, i.e. 20%.
	got := float64(zeros) / float64(trials)
	want := 1.0 / float64(len(list)+1)
	if diff := got - want; diff > 0.02 || diff < -0.02 {
		t.Errorf("zero probability = %.4f, want ~%.4f", got, want)
	}
}

func TestBitflags_SubsetOfList(t *testing.T) {
	list := []uint64{0x1, 0x2, 0x4, 0x8, 0x10}
	var all uint64
	for _, v := range list {
		all |= v
	}
	src := randsrc.NewSeeded(2)

	for i := 0; i < 1000; i++ {
		v, err := bitflags(src, list)
		if err != nil {
			t.Fatalf("bitflags: %v", err)
		}
		if v&^all != 0 {
			t.Fatalf("bitflags produced bits outside the declared list: %#x", v)
		}
	}
}

func TestBitflags_EmptyList(t *testing.T) {
	src := randsrc.NewSeeded(3)
	if _, err := bitflags(src, nil); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestPickFromList_Uniform(t *testing.T) {
	list := make([]int, 41) // SCTP option list size
	for i := range list {
		list[i] = i
	}
	src := randsrc.NewSeeded(4)

	counts := make([]int, len(list))
	const trials = 100000
	for i := 0; i < trials; i++ {
		v, err := PickFromList(src, list)
		if err != nil {
			t.Fatalf("PickFromList: %v", err)
		}
		counts[v]++
	}

	want := float64(trials) / float64(len(list))
	for i, c := range counts {
		if diff := (float64(c) - want) / want; diff > 0.1 || diff < -0.1 {
			t.Errorf("bucket %d: count=%d, want ~%.0f (within 10%%)", i, c, want)
		}
	}
}

func TestGenerate_OpaqueInt(t *testing.T) {
	src := randsrc.NewSeeded(5)
	pools, _ := NewPools(t.TempDir())
	defer pools.Close()

	v, err := Generate(src, table.Arg{Kind: table.KindOpaqueInt}, pools)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	_ = v // any 64-bit value is valid; just confirm no error
}

func TestGenerate_ModeBits(t *testing.T) {
	src := randsrc.NewSeeded(6)
	pools, _ := NewPools(t.TempDir())
	defer pools.Close()

	for i := 0; i < 1000; i++ {
		v, err := Generate(src, table.Arg{Kind: table.KindModeBits}, pools)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if v > 0xFFF {
			t.Fatalf("mode bits out of 12-bit range: %#x", v)
		}
	}
}

func TestGenerate_FDPool(t *testing.T) {
	src := randsrc.NewSeeded(7)
	pools, _ := NewPools(t.TempDir())
	defer pools.Close()

	v, err := Generate(src, table.Arg{Kind: table.KindFD}, pools)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if v != 0 && v != 1 && v != 2 {
		t.Errorf("fd = %d, want one of the pool's fds", v)
	}
}
