package syscalls

import (
	"trinity-go/argtype"
	"trinity-go/randsrc"
)

// sctpLevel is SOL_SCTP, ported from the reference's sctp_setsockopt.c.
const sctpLevel = 132

// sctpOptions is the 41-element SCTP socket option name list, ported
// verbatim from the reference's sctp_opts[] array.
var sctpOptions = []int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	11, 12, 13, 14, 15, 16, 17, 22, 23, 24,
	25, 26, 27, 28, 29, 30, 31, 32, 101, 102,
	103, 104, 105, 106, 107, 108, 109, 110, 111, 112,
	113,
}

// SCTPOption mirrors the reference's `struct sockopt`: a level/optname
// pair ready to pass to setsockopt.
type SCTPOption struct {
	Level   int
	Optname int
}

// RandomSCTPOption implements spec.md's External Interfaces SCTP example:
// level is always SOL_SCTP, optname is chosen uniformly from the 41-element
// option list via the generic pick-from-list utility.
func RandomSCTPOption(src *randsrc.Source) (SCTPOption, error) {
	optname, err := argtype.PickFromList(src, sctpOptions)
	if err != nil {
		return SCTPOption{}, err
	}
	return SCTPOption{Level: sctpLevel, Optname: optname}, nil
}
