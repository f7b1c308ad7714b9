// Package syscalls provides the concrete syscall-table entries spec.md's
// out-of-scope "argument-type generators for non-opaque types" leaves to an
// external registry: open/openat (pathname, fd, enumerated-op and
// mode-bits kinds; no entry here declares a bitflag-set argument), and
// simple read/write/close entries for the opaque-integer/fd kinds.
package syscalls

import (
	"runtime"

	ferrors "trinity-go/errors"
	"trinity-go/randsrc"
	"trinity-go/table"
)

// Build constructs the syscall table for one process. It must be called
// identically (same entries, same order) in every child so that dense
// indices line up with the shared active-counters array allocated by the
// supervisor before any child starts.
func Build(src *randsrc.Source) (*table.Table, error) {
	t := table.New()

	entries := []*table.Entry{
		newOpenEntry(src.Intn),
		newOpenatEntry(src.Intn),
		{
			Name: "read",
			Args: []table.Arg{
				{Name: "fd", Kind: table.KindFD},
				{Name: "buf", Kind: table.KindPathname},
				{Name: "count", Kind: table.KindOpaqueInt},
			},
		},
		{
			Name: "write",
			Args: []table.Arg{
				{Name: "fd", Kind: table.KindFD},
				{Name: "buf", Kind: table.KindPathname},
				{Name: "count", Kind: table.KindOpaqueInt},
			},
		},
		{
			Name: "close",
			Args: []table.Arg{
				{Name: "fd", Kind: table.KindFD},
			},
		},
	}

	arch := runtime.GOARCH
	for _, e := range entries {
		nr, ok := SyscallNumber(arch, e.Name)
		if !ok {
			return nil, ferrors.WrapWithEntry(nil, ferrors.ErrInvalidConfig, "build table: unknown syscall number", e.Name)
		}
		e.NR = nr
		if err := t.Register(e); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Filter returns the subset of names present in the table, preserving
// registration order, or all names if enabled is empty. It never mutates
// t; it is used by config to restrict which entries remain eligible.
func Filter(t *table.Table, enabled []string) []string {
	if len(enabled) == 0 {
		names := make([]string, 0, t.Count())
		for i := 0; i < t.Count(); i++ {
			e, _ := t.EntryAt(i)
			names = append(names, e.Name)
		}
		return names
	}

	allowed := make(map[string]bool, len(enabled))
	for _, n := range enabled {
		allowed[n] = true
	}

	var out []string
	for i := 0; i < t.Count(); i++ {
		e, _ := t.EntryAt(i)
		if allowed[e.Name] {
			out = append(out, e.Name)
		}
	}
	return out
}
