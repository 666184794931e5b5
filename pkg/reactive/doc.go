// Package reactive wraps plain nested data in observable containers.
//
// A Graph turns map[string]any and []any trees into *Object and *Array
// wrappers. Every write or delete through a wrapper marks the owning root
// entity dirty and wakes the graph's subscribers:
//
//	g := reactive.NewGraph()
//	g.OnDirty(func() { scheduler.Schedule(flush) })
//
//	todo := g.WrapObject(map[string]any{
//	    "id":    "1",
//	    "title": "write tests",
//	    "tags":  []any{"go"},
//	})
//
//	tags, _ := todo.Get("tags")
//	tags.(*reactive.Array).Push("reactive")  // marks todo dirty
//
//	dirty := g.ClearDirty()                  // {"1": todo}
//
// # Wrapping
//
// Wrapping is eager and transitive: nested maps and slices are wrapped when
// the tree is wrapped and whenever they are assigned later, so every node
// reachable from a root is reactive. Values that are already reactive are
// stored as-is.
//
// # Liveness
//
// The graph remembers every wrapper it created through weak pointers. All and
// Roots enumerate the wrappers that are still reachable elsewhere in the
// program; collected entries are pruned lazily.
//
// # Thread Safety
//
// Wrappers and the graph are safe for concurrent use. ClearDirty swaps the
// dirty set under the graph lock, so a mutation racing a drain is delivered
// by exactly one flush.
package reactive
