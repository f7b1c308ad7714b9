// Package sanitize implements spec.md's two-phase sanitizer layer: a
// generic kind-aware pass, followed by an optional per-entry sanitizer,
// both run under the record lock between PREP fill-in and release.
package sanitize

import (
	"trinity-go/argtype"
	"trinity-go/randsrc"
	"trinity-go/table"
)

// Generic normalizes the six random words against the entry's declared
// argument kinds, overwriting the initial rand-64 draw of every declared,
// non-ignored slot with a kind-appropriate value. OR-ing extra bits into a
// slot is left to per-entry sanitizers. It never touches slots beyond
// len(entry.Args).
func Generic(entry *table.Entry, a *[6]uint64, src *randsrc.Source, pools *argtype.Pools) error {
	for i, arg := range entry.Args {
		if i >= 6 {
			break
		}
		if arg.Kind == table.KindIgnored {
			continue
		}
		v, err := argtype.Generate(src, arg, pools)
		if err != nil {
			return err
		}
		a[i] = v
	}
	return nil
}

// Entry runs the entry's optional per-entry sanitizer, if any. Per-entry
// sanitizers are free to modify any aN, including ones the generic pass
// already filled in (the `open` sanitizer, for instance, ORs additional
// O_* flags into a2 while preserving the low access-mode bits the generic
// pass set).
func Entry(entry *table.Entry, a *[6]uint64) {
	if entry.Sanitize != nil {
		entry.Sanitize(a)
	}
}
