package reactive

import "sync"

// Array is a reactive wrapper around a []any.
type Array struct {
	graph *Graph
	root  Value // nil when the array is its own root

	mu    sync.RWMutex
	items []any
}

func (g *Graph) newArray(src []any, root Value) *Array {
	a := &Array{
		graph: g,
		root:  root,
		items: make([]any, len(src)),
	}
	owner := root
	if owner == nil {
		owner = a
	}
	for i, v := range src {
		a.items[i] = g.wrapChild(v, owner)
	}
	g.register(arrayRef{ptr: makeWeakArray(a)})
	return a
}

// ID returns "". Arrays carry no identifier; a root array is tracked under
// the empty key.
func (a *Array) ID() string { return "" }

// Reactive implements Value.
func (a *Array) Reactive() bool { return true }

// Root returns the owning root entity.
func (a *Array) Root() Value {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.root == nil {
		return a
	}
	return a.root
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Get returns the element at i.
func (a *Array) Get(i int) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	return a.items[i], true
}

// Items returns a shallow copy of the elements.
func (a *Array) Items() []any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

// Set stores v at index i, growing the array with nil holes when i is past
// the end, and marks the owning root dirty. Negative indexes are ignored.
// Nested wrappers move under this array's root as in Object.Set.
func (a *Array) Set(i int, v any) {
	if i < 0 {
		return
	}
	v = a.graph.wrapChild(v, a.Root())

	a.mu.Lock()
	for len(a.items) <= i {
		a.items = append(a.items, nil)
	}
	a.items[i] = v
	a.mu.Unlock()

	a.graph.MarkDirty(a.Root())
}

// Push appends values and marks the owning root dirty.
func (a *Array) Push(values ...any) {
	wrapped := make([]any, len(values))
	for i, v := range values {
		wrapped[i] = a.graph.wrapChild(v, a.Root())
	}

	a.mu.Lock()
	a.items = append(a.items, wrapped...)
	a.mu.Unlock()

	a.graph.MarkDirty(a.Root())
}

// Delete clears the element at i, leaving a nil hole so later indexes keep
// their positions, and marks the owning root dirty.
func (a *Array) Delete(i int) {
	a.mu.Lock()
	if i >= 0 && i < len(a.items) {
		a.items[i] = nil
	}
	a.mu.Unlock()

	a.graph.MarkDirty(a.Root())
}

// Snapshot returns a deep, unwrapped copy of the array.
func (a *Array) Snapshot() []any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]any, len(a.items))
	for i, v := range a.items {
		out[i] = plainOf(v)
	}
	return out
}

// Plain implements Value.
func (a *Array) Plain() any { return a.Snapshot() }
