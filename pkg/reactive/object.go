package reactive

import (
	"sort"
	"sync"
)

// Object is a reactive wrapper around a map[string]any.
type Object struct {
	graph *Graph
	root  Value // nil when the object is its own root

	mu    sync.RWMutex
	props map[string]any
}

func (g *Graph) newObject(src map[string]any, root Value) *Object {
	o := &Object{
		graph: g,
		root:  root,
		props: make(map[string]any, len(src)),
	}
	owner := root
	if owner == nil {
		owner = o
	}
	for k, v := range src {
		o.props[k] = g.wrapChild(v, owner)
	}
	g.register(objectRef{ptr: makeWeakObject(o)})
	return o
}

// ID returns the identifier stored under IDKey.
func (o *Object) ID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return idString(o.props[IDKey])
}

// Reactive implements Value.
func (o *Object) Reactive() bool { return true }

// Root returns the owning root entity.
func (o *Object) Root() Value {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.root == nil {
		return o
	}
	return o.root
}

// Get returns the property stored under key. Nested maps and slices come
// back as *Object and *Array. ReactiveKey always reports true.
func (o *Object) Get(key string) (any, bool) {
	if key == ReactiveKey {
		return true, true
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.props[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the property names in sorted order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	keys := make([]string, 0, len(o.props))
	for k := range o.props {
		keys = append(keys, k)
	}
	o.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of properties.
func (o *Object) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.props)
}

// Set stores v under key, wrapping it first when it is a map or slice,
// and marks the owning root dirty. A nested *Object or *Array taken from
// another entity moves to this object's root, so later writes through it
// mark this root. Root entities stored here stay roots.
func (o *Object) Set(key string, v any) {
	v = o.graph.wrapChild(v, o.Root())

	o.mu.Lock()
	o.props[key] = v
	o.mu.Unlock()

	o.graph.MarkDirty(o.Root())
}

// Merge sets every entry of values. Each write marks the root dirty; the
// scheduler coalesces them into one flush.
func (o *Object) Merge(values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.Set(k, values[k])
	}
}

// Delete removes key and marks the owning root dirty.
func (o *Object) Delete(key string) {
	o.mu.Lock()
	delete(o.props, key)
	o.mu.Unlock()

	o.graph.MarkDirty(o.Root())
}

// Snapshot returns a deep, unwrapped copy of the object.
func (o *Object) Snapshot() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]any, len(o.props))
	for k, v := range o.props {
		out[k] = plainOf(v)
	}
	return out
}

// Plain implements Value.
func (o *Object) Plain() any { return o.Snapshot() }
