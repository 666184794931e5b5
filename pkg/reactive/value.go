package reactive

import "fmt"

// ReactiveKey is the reserved property that reports whether an object is
// reactive. Object.Get(ReactiveKey) always returns true.
const ReactiveKey = "__reactive"

// IDKey is the property holding an entity's identifier.
const IDKey = "id"

// Value is a reactive wrapper: an *Object or an *Array.
type Value interface {
	// ID returns the entity identifier stored under IDKey, or "".
	ID() string

	// Reactive is the capability check. It always returns true.
	Reactive() bool

	// Root returns the entity whose dirty state this wrapper contributes to.
	Root() Value

	// Plain returns a deep, unwrapped copy of the wrapped data.
	Plain() any
}

// IsReactive reports whether v is already wrapped.
func IsReactive(v any) bool {
	r, ok := v.(Value)
	return ok && r != nil && r.Reactive()
}

// Unwrap returns a deep plain copy of v when v is reactive, and v otherwise.
func Unwrap(v any) any {
	if r, ok := v.(Value); ok && r != nil {
		return r.Plain()
	}
	return v
}

// idString normalises an id property to a string.
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// wrapChild wraps maps and slices that are about to be stored below root.
// Nested wrappers that are already reactive move under root.
func (g *Graph) wrapChild(v any, root Value) any {
	if IsReactive(v) {
		g.adopt(v, root)
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		return g.newObject(t, root)
	case []any:
		return g.newArray(t, root)
	default:
		return v
	}
}

// adopt re-roots a nested wrapper of g and everything below it. Root
// entities and wrappers of other graphs are left alone.
func (g *Graph) adopt(v any, root Value) {
	var children []any
	switch t := v.(type) {
	case *Object:
		if t == nil || t.graph != g {
			return
		}
		t.mu.Lock()
		if t.root == nil || t.root == root {
			t.mu.Unlock()
			return
		}
		t.root = root
		for _, c := range t.props {
			children = append(children, c)
		}
		t.mu.Unlock()
	case *Array:
		if t == nil || t.graph != g {
			return
		}
		t.mu.Lock()
		if t.root == nil || t.root == root {
			t.mu.Unlock()
			return
		}
		t.root = root
		children = append(children, t.items...)
		t.mu.Unlock()
	}
	for _, c := range children {
		g.adopt(c, root)
	}
}

// plainOf deep-copies a stored value, unwrapping reactive children.
func plainOf(v any) any {
	if r, ok := v.(Value); ok && r != nil {
		return r.Plain()
	}
	return v
}
