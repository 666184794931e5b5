// Package vdom is the default view layer for reflex.
//
// A Document holds an in-memory tree of VNodes. Elements bind to reactive
// entities through data attributes:
//
//	data-nf-id="7"          re-render when entity "7" changes
//	data-nf-any             re-render on every flush
//	data-nf-tpl="..."       the ${...} template used to render the node
//
// Elements are created using variadic factory functions:
//
//	doc := vdom.NewDocument(
//	    Div(Class("card"),
//	        H1(BindID("1"), Tpl("Hello ${data.name}")),
//	        Input(BindID("1"), Tpl("${data.name}")),
//	        P(BindAny(), Tpl("${len(all)} entities")),
//	    ),
//	)
//
// Bound elements render as text content; input, textarea and select render
// into their value attribute.
//
// # Hydration
//
// AssignHIDs gives every bound element a hydration ID so remote clients can
// address the element a flush updated.
package vdom
