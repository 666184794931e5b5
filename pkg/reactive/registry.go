package reactive

import "weak"

// liveRef is a non-owning handle to a wrapper.
type liveRef interface {
	value() Value
}

type objectRef struct{ ptr weak.Pointer[Object] }

func (r objectRef) value() Value {
	if o := r.ptr.Value(); o != nil {
		return o
	}
	return nil
}

type arrayRef struct{ ptr weak.Pointer[Array] }

func (r arrayRef) value() Value {
	if a := r.ptr.Value(); a != nil {
		return a
	}
	return nil
}

func makeWeakObject(o *Object) weak.Pointer[Object] { return weak.Make(o) }
func makeWeakArray(a *Array) weak.Pointer[Array]    { return weak.Make(a) }

// minPruneSize is the registry length below which registration never prunes.
const minPruneSize = 64

// register records a new wrapper. Collected entries are pruned whenever the
// registry has doubled since the last prune.
func (g *Graph) register(ref liveRef) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.live = append(g.live, ref)
	if len(g.live) >= minPruneSize && len(g.live) >= 2*g.livePruned {
		g.pruneLocked()
	}
}

// pruneLocked drops collected entries. g.mu must be held.
func (g *Graph) pruneLocked() []Value {
	alive := make([]Value, 0, len(g.live))
	kept := g.live[:0]
	for _, ref := range g.live {
		if v := ref.value(); v != nil {
			alive = append(alive, v)
			kept = append(kept, ref)
		}
	}
	for i := len(kept); i < len(g.live); i++ {
		g.live[i] = nil
	}
	g.live = kept
	g.livePruned = len(kept)
	return alive
}

// All returns every wrapper that is still reachable, nested ones included,
// in creation order.
func (g *Graph) All() []Value {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pruneLocked()
}

// Roots returns the still-reachable wrappers that own their dirty state.
func (g *Graph) Roots() []Value {
	all := g.All()
	roots := all[:0]
	for _, v := range all {
		if v.Root() == v {
			roots = append(roots, v)
		}
	}
	return roots
}

// LiveCount returns the number of registry entries without pruning.
// Collected wrappers may still be counted.
func (g *Graph) LiveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.live)
}
