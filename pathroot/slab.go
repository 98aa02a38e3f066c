package pathroot

import (
	"context"
	"sync"

	"github.com/banksean/jct/jcterr"
)

// Slab is the workspace-owned arena of path roots described in spec §9:
// containers observe roots by stable handle rather than holding an
// aliased owning pointer, and every per-root resource drops when the slab
// is cleared.
//
// Mutation (Acquire) is only safe from the owning goroutine before compile
// starts; CloseAll is exclusive (spec §5, "Workspace roots").
type Slab struct {
	mu    sync.Mutex
	roots []PathRoot
}

// Acquire registers root with the slab and returns it unchanged, for
// chaining at the call site.
func (s *Slab) Acquire(root PathRoot) PathRoot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots = append(s.roots, root)
	return root
}

// Roots returns a snapshot of the currently owned roots, oldest first.
func (s *Slab) Roots() []PathRoot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PathRoot, len(s.roots))
	copy(out, s.roots)
	return out
}

// CloseAll releases every owned root, oldest-last (reverse insertion
// order), per spec §4.6, one after another; a failure closing one root
// never skips closing its siblings — every failure is collected and
// returned together as a single aggregated error.
func (s *Slab) CloseAll(ctx context.Context) error {
	s.mu.Lock()
	roots := make([]PathRoot, len(s.roots))
	copy(roots, s.roots)
	s.roots = nil
	s.mu.Unlock()

	if len(roots) == 0 {
		return nil
	}

	var causes []error
	for i := len(roots) - 1; i >= 0; i-- {
		if err := roots[i].Close(); err != nil {
			causes = append(causes, err)
		}
	}
	return jcterr.NewAggregateError("path root slab close", causes)
}
