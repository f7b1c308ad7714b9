// Package argtype implements the per-kind argument generators spec.md's
// sanitizer layer calls out to: one 64-bit word per declared argument kind,
// plus the generic "pick from list" utility the External Interfaces section
// requires for enumerated-selection helpers like the SCTP sockopt example.
package argtype

import (
	"trinity-go/randsrc"
	"trinity-go/table"
)

// PickFromList chooses one element of list uniformly at random. It is the
// generic utility behind every enumerated-selection helper in this
// repository (syscalls.RandomSCTPOption, the enumerated-op generator
// below, and any future caller), ported from the reference's
// `sctp_setsockopt()` which does exactly this: `list[rand() % len(list)]`.
func PickFromList[T any](src *randsrc.Source, list []T) (T, error) {
	var zero T
	if len(list) == 0 {
		return zero, errEmptyList()
	}
	return list[src.Intn(len(list))], nil
}

// Generate produces one 64-bit word for the declared kind. File-descriptor
// and pathname kinds additionally consult the per-child Pools (spec.md
// lists these as non-opaque generators the core calls out to a registry
// for; Pools is that registry's minimal concrete backing).
func Generate(src *randsrc.Source, arg table.Arg, pools *Pools) (uint64, error) {
	switch arg.Kind {
	case table.KindIgnored:
		return 0, nil
	case table.KindOpaqueInt:
		return src.Uint64(), nil
	case table.KindBitflagSet:
		return bitflags(src, arg.Values)
	case table.KindEnumeratedOp:
		v, err := PickFromList(src, arg.Values)
		if err != nil {
			return 0, err
		}
		return v, nil
	case table.KindModeBits:
		return src.Uint64() & 0xFFF, nil
	case table.KindFD:
		return pools.RandomFD(src), nil
	case table.KindPathname:
		return pools.RandomPathname(src), nil
	default:
		return src.Uint64(), nil
	}
}

// bitflags implements spec.md 4.2's bitflag contract exactly: choose k
// uniformly in [0, num] inclusive, then OR together k values independently
// sampled with replacement from list. k=0 yields 0. Duplicates are allowed
// and intentional — sampling the same bit twice biases the distribution
// toward hotter combinations, ported from the reference's `get_o_flags()`.
func bitflags(src *randsrc.Source, list []uint64) (uint64, error) {
	if len(list) == 0 {
		return 0, errEmptyList()
	}
	k := src.IntN(len(list))
	var v uint64
	for i := 0; i < k; i++ {
		v |= list[src.Intn(len(list))]
	}
	return v, nil
}
