// Package reflex keeps plain Go data in sync with a view.
//
// An App wraps entities in a reactive graph. Every write to a wrapped
// entity marks its root dirty; dirty notifications are coalesced into one
// flush per loop turn, and each flush re-renders the view nodes bound to the
// dirty entities.
//
//	doc := vdom.NewDocument(vdom.H1(vdom.BindID("1"), vdom.Tpl("Hello ${data.name}")))
//	app := reflex.New(reflex.Config{Layer: doc})
//
//	user := app.Wrap(map[string]any{"id": "1", "name": "a"}).(*reactive.Object)
//	user.Set("name", "b")
//	app.Tick() // the h1 now reads "Hello b"
//
// Flushes run on the app's Loop: call Run to drive it from a goroutine, or
// Tick to run one turn synchronously.
package reflex

// Version is the reflex release.
const Version = "0.1.0"
