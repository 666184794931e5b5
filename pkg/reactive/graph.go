package reactive

import (
	"sync"
)

// DirtyMap holds the entities mutated since the last flush, keyed by id.
type DirtyMap map[string]Value

// IDs returns the keys of the map.
func (d DirtyMap) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	return ids
}

type subscriber struct {
	id uint64
	fn func()
}

// Graph creates reactive wrappers and tracks which roots changed.
type Graph struct {
	mu sync.Mutex

	dirty DirtyMap

	subs    []subscriber
	nextSub uint64

	live       []liveRef
	livePruned int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		dirty: make(DirtyMap),
	}
}

var (
	defaultGraph     *Graph
	defaultGraphOnce sync.Once
)

// Default returns the process-wide graph.
func Default() *Graph {
	defaultGraphOnce.Do(func() {
		defaultGraph = NewGraph()
	})
	return defaultGraph
}

// Wrap returns a reactive wrapper for v. Maps become *Object, slices become
// *Array and reactive values are returned unchanged. Any other value is
// returned as-is.
func (g *Graph) Wrap(v any) any {
	return g.wrapChild(v, nil)
}

// WrapObject wraps m as a root entity.
func (g *Graph) WrapObject(m map[string]any) *Object {
	if m == nil {
		m = map[string]any{}
	}
	return g.newObject(m, nil)
}

// WrapArray wraps s as a root entity.
func (g *Graph) WrapArray(s []any) *Array {
	return g.newArray(s, nil)
}

// MarkDirty records v in the dirty set under v.ID() and notifies every
// subscriber once. A nil value, typed or not, is ignored.
func (g *Graph) MarkDirty(v Value) {
	if isNil(v) {
		return
	}
	id := v.ID()

	g.mu.Lock()
	g.dirty[id] = v
	subs := make([]subscriber, len(g.subs))
	copy(subs, g.subs)
	g.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

func isNil(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *Object:
		return x == nil
	case *Array:
		return x == nil
	}
	return false
}

// ClearDirty swaps the dirty set for an empty one and returns the previous
// contents.
func (g *Graph) ClearDirty() DirtyMap {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.dirty
	g.dirty = make(DirtyMap)
	return d
}

// Dirty returns a copy of the dirty set without draining it.
func (g *Graph) Dirty() DirtyMap {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := make(DirtyMap, len(g.dirty))
	for k, v := range g.dirty {
		d[k] = v
	}
	return d
}

// OnDirty registers fn to run after every MarkDirty. fn runs on the
// mutating goroutine, outside the graph lock. The returned function removes
// the subscription.
func (g *Graph) OnDirty(fn func()) (unsubscribe func()) {
	g.mu.Lock()
	g.nextSub++
	id := g.nextSub
	g.subs = append(g.subs, subscriber{id: id, fn: fn})
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		for i, s := range g.subs {
			if s.id == id {
				g.subs = append(g.subs[:i], g.subs[i+1:]...)
				return
			}
		}
	}
}
