package reactive

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapRecursive(t *testing.T) {
	g := NewGraph()
	root := g.WrapObject(map[string]any{
		"id":   "1",
		"user": map[string]any{"name": "a"},
		"tags": []any{"x", map[string]any{"deep": true}},
	})

	user, ok := root.Get("user")
	require.True(t, ok)
	require.IsType(t, &Object{}, user)
	assert.Same(t, root, user.(*Object).Root())

	tags, _ := root.Get("tags")
	require.IsType(t, &Array{}, tags)
	inner, _ := tags.(*Array).Get(1)
	require.IsType(t, &Object{}, inner)
	assert.Same(t, root, inner.(*Object).Root())

	assert.Empty(t, g.Dirty(), "wrapping must not mark anything dirty")
}

func TestReactiveKey(t *testing.T) {
	g := NewGraph()
	o := g.WrapObject(map[string]any{"id": "1"})

	v, ok := o.Get(ReactiveKey)
	assert.True(t, ok)
	assert.Equal(t, true, v)
	assert.True(t, IsReactive(o))
	assert.False(t, IsReactive(map[string]any{}))
	assert.False(t, IsReactive(nil))
}

func TestWrapAlreadyReactiveIsNoop(t *testing.T) {
	g := NewGraph()
	o := g.WrapObject(map[string]any{"id": "1"})

	assert.Same(t, o, g.Wrap(o))
	assert.Equal(t, 42, g.Wrap(42))

	other := g.WrapObject(map[string]any{"id": "2"})
	o.Set("peer", other)
	peer, _ := o.Get("peer")
	assert.Same(t, other, peer, "reactive values are stored without re-wrapping")
}

func TestSetWrapsNewStructures(t *testing.T) {
	g := NewGraph()
	o := g.WrapObject(map[string]any{"id": "1"})

	o.Set("child", map[string]any{"list": []any{1, 2}})

	child, _ := o.Get("child")
	require.IsType(t, &Object{}, child)
	list, _ := child.(*Object).Get("list")
	require.IsType(t, &Array{}, list)

	g.ClearDirty()
	list.(*Array).Push(3)

	dirty := g.ClearDirty()
	require.Len(t, dirty, 1)
	assert.Same(t, o, dirty["1"])
}

func TestTransitivityMarksRootAtAnyDepth(t *testing.T) {
	g := NewGraph()
	root := g.WrapObject(map[string]any{
		"id": "root",
		"a":  map[string]any{"b": map[string]any{"c": map[string]any{"d": 0}}},
	})

	node := any(root)
	for _, key := range []string{"a", "b", "c"} {
		node, _ = node.(*Object).Get(key)
	}

	for i := 0; i < 5; i++ {
		node.(*Object).Set("d", i)
	}

	dirty := g.ClearDirty()
	assert.Equal(t, DirtyMap{"root": root}, dirty)
	assert.Empty(t, g.ClearDirty(), "a drained mutation is never delivered twice")
}

func TestMovedChildMarksNewRoot(t *testing.T) {
	g := NewGraph()
	a := g.WrapObject(map[string]any{"id": "A", "c": map[string]any{"x": []any{map[string]any{"y": 0}}}})
	b := g.WrapObject(map[string]any{"id": "B"})

	c, _ := a.Get("c")
	b.Set("c", c)
	g.ClearDirty()

	c.(*Object).Set("x", 1)
	assert.Equal(t, DirtyMap{"B": b}, g.ClearDirty())
	assert.Same(t, b, c.(*Object).Root())

	arr := g.WrapArray([]any{map[string]any{"z": 0}})
	item, _ := arr.Get(0)
	b.Set("item", item)
	g.ClearDirty()
	item.(*Object).Set("z", 1)
	assert.Equal(t, DirtyMap{"B": b}, g.ClearDirty(), "children of arrays move too")

	b.Set("peer", a)
	assert.Same(t, a, a.Root(), "root entities stay roots")
}

func TestDeleteMarksDirty(t *testing.T) {
	g := NewGraph()
	o := g.WrapObject(map[string]any{"id": "1", "name": "a"})
	arr := g.WrapArray([]any{"a", "b", "c"})

	o.Delete("name")
	assert.False(t, o.Has("name"))

	arr.Delete(1)
	assert.Equal(t, []any{"a", nil, "c"}, arr.Snapshot())

	dirty := g.ClearDirty()
	assert.Same(t, o, dirty["1"])
	assert.Same(t, arr, dirty[""])
}

func TestArraySetGrows(t *testing.T) {
	g := NewGraph()
	arr := g.WrapArray(nil)

	arr.Set(2, "c")
	assert.Equal(t, []any{nil, nil, "c"}, arr.Snapshot())

	arr.Set(-1, "ignored")
	assert.Equal(t, 3, arr.Len())

	_, ok := arr.Get(5)
	assert.False(t, ok)
}

func TestOnDirtyNotifiesPerMutation(t *testing.T) {
	g := NewGraph()
	o := g.WrapObject(map[string]any{"id": "1"})

	calls := 0
	unsubscribe := g.OnDirty(func() { calls++ })

	o.Set("a", 1)
	o.Set("b", 2)
	o.Delete("a")
	assert.Equal(t, 3, calls)

	unsubscribe()
	o.Set("c", 3)
	assert.Equal(t, 3, calls)
}

func TestMarkDirtyNilIgnored(t *testing.T) {
	g := NewGraph()
	calls := 0
	g.OnDirty(func() { calls++ })

	g.MarkDirty(nil)
	assert.NotPanics(t, func() {
		g.MarkDirty((*Object)(nil))
		g.MarkDirty((*Array)(nil))
	})
	assert.Zero(t, calls)
	assert.Empty(t, g.Dirty())
}

func TestDirtyDeduplicatesByID(t *testing.T) {
	g := NewGraph()
	a := g.WrapObject(map[string]any{"id": "a"})
	b := g.WrapObject(map[string]any{"id": "b"})

	for i := 0; i < 10; i++ {
		a.Set("n", i)
		b.Set("n", i)
	}

	dirty := g.ClearDirty()
	assert.ElementsMatch(t, []string{"a", "b"}, dirty.IDs())
}

func TestClearDirtyConcurrentWithMutation(t *testing.T) {
	g := NewGraph()

	const writers = 8
	objs := make([]*Object, writers)
	for i := range objs {
		objs[i] = g.WrapObject(map[string]any{"id": string(rune('a' + i))})
	}

	var wg sync.WaitGroup
	for _, o := range objs {
		wg.Add(1)
		go func(o *Object) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				o.Set("n", i)
			}
		}(o)
	}

	seen := make(map[string]bool)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		for id := range g.ClearDirty() {
			seen[id] = true
		}
	}
	for id := range g.ClearDirty() {
		seen[id] = true
	}

	assert.Len(t, seen, writers)
}

func TestSnapshotIsDetached(t *testing.T) {
	g := NewGraph()
	o := g.WrapObject(map[string]any{"id": "1", "nested": map[string]any{"n": 1}})

	snap := o.Snapshot()
	snap["nested"].(map[string]any)["n"] = 99

	nested, _ := o.Get("nested")
	n, _ := nested.(*Object).Get("n")
	assert.Equal(t, 1, n)
	assert.Equal(t, map[string]any{"id": "1", "nested": map[string]any{"n": 1}}, Unwrap(o))
	assert.Equal(t, "plain", Unwrap("plain"))
}

func TestIDNormalisation(t *testing.T) {
	g := NewGraph()
	assert.Equal(t, "7", g.WrapObject(map[string]any{"id": 7}).ID())
	assert.Equal(t, "", g.WrapObject(nil).ID())
	assert.Equal(t, "", g.WrapArray(nil).ID())
}

func TestMergeSetsAllKeys(t *testing.T) {
	g := NewGraph()
	o := g.WrapObject(map[string]any{"id": "1"})

	o.Merge(map[string]any{"a": 1, "b": map[string]any{"c": 2}})

	assert.Equal(t, []string{"a", "b", "id"}, o.Keys())
	b, _ := o.Get("b")
	assert.True(t, IsReactive(b))
}

func wrapAndDrop(g *Graph) {
	g.WrapObject(map[string]any{
		"id":    "temp",
		"child": map[string]any{"list": []any{1}},
	})
}

func TestWeakLiveness(t *testing.T) {
	g := NewGraph()
	kept := g.WrapObject(map[string]any{"id": "kept"})

	wrapAndDrop(g)
	require.Len(t, g.Roots(), 2)

	require.Eventually(t, func() bool {
		runtime.GC()
		return len(g.All()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	roots := g.Roots()
	require.Len(t, roots, 1)
	assert.Same(t, kept, roots[0])
	runtime.KeepAlive(kept)
}

func TestRegistryPrunesOnRegistration(t *testing.T) {
	g := NewGraph()
	for i := 0; i < minPruneSize; i++ {
		g.WrapObject(map[string]any{})
	}
	runtime.GC()
	runtime.GC()

	for i := 0; i < minPruneSize*2; i++ {
		g.WrapObject(map[string]any{})
	}
	assert.Less(t, g.LiveCount(), minPruneSize*3, "collected entries are dropped while registering")
}

func TestDefaultGraphIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
