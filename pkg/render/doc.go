// Package render serialises vdom trees to HTML.
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(doc.Root)
//
// Text and attribute values are escaped. Bound elements carry their
// hydration ID as data-hid so a client can apply pushed updates.
package render
