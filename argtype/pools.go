package argtype

import (
	"fmt"
	"os"

	ferrors "trinity-go/errors"
	"trinity-go/randsrc"
)

func errEmptyList() error {
	return ferrors.ErrEmptyValueList
}

// Pools holds the per-child private resources the file-descriptor and
// pathname argument kinds draw from. spec.md lists these generators as
// out-of-scope "external collaborators" the core merely calls into; Pools
// is the minimal concrete registry backing that call.
type Pools struct {
	fds   []uintptr
	paths []string
}

// NewPools creates a pool seeded with a handful of always-valid file
// descriptors (stdio) and pathnames (scratch files under dir), enough to
// exercise the fd/pathname argument kinds without depending on whatever
// the fuzzed calls themselves create.
func NewPools(dir string) (*Pools, error) {
	p := &Pools{
		fds: []uintptr{0, 1, 2},
	}
	for i := 0; i < 4; i++ {
		path := fmt.Sprintf("%s/trinity-%d", dir, i)
		if f, err := os.Create(path); err == nil {
			f.Close()
		}
		p.paths = append(p.paths, path)
	}
	// Always include a nonexistent path so generated calls occasionally
	// exercise ENOENT handling.
	p.paths = append(p.paths, dir+"/trinity-missing")
	return p, nil
}

// RandomFD returns one of the pool's open file descriptors.
func (p *Pools) RandomFD(src *randsrc.Source) uint64 {
	if len(p.fds) == 0 {
		return ^uint64(0) // all-ones: an intentionally invalid fd
	}
	return uint64(p.fds[src.Intn(len(p.fds))])
}

// RandomPathname returns the index (as a word) of one of the pool's
// pre-allocated path strings, not a pointer. Real invocation requires the
// raw bytes of the chosen path to be passed to invoke.Invoke, so the child
// loop resolves the index back to a string via Pathname and passes a
// pointer to its bytes.
func (p *Pools) RandomPathname(src *randsrc.Source) uint64 {
	if len(p.paths) == 0 {
		return 0
	}
	return uint64(src.Intn(len(p.paths)))
}

// Pathname resolves an index produced by RandomPathname back to the
// underlying string.
func (p *Pools) Pathname(idx uint64) string {
	if int(idx) >= len(p.paths) {
		return ""
	}
	return p.paths[idx]
}

// Close removes any scratch files the pool created.
func (p *Pools) Close() {
	for _, path := range p.paths {
		os.Remove(path)
	}
}
