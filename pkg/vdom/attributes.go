package vdom

import (
	"strings"

	"github.com/vango-dev/reflex/pkg/view"
)

// Binding attributes.
const (
	AttrBindID   = "data-nf-id"
	AttrBindAny  = "data-nf-any"
	AttrTemplate = "data-nf-tpl"
)

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// BindID binds the element to the entity with the given id.
func BindID(id string) Attr { return attr(AttrBindID, id) }

// BindAny binds the element to every change.
func BindAny() Attr { return attr(AttrBindAny, true) }

// Tpl sets the element's render template.
func Tpl(template string) Attr { return attr(AttrTemplate, template) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// Data creates a data-* attribute.
// Example: Data("role", "title") → data-role="title"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Name sets the name attribute.
func Name(name string) Attr { return attr("name", name) }

// Value sets the value attribute.
func Value(value string) Attr { return attr("value", value) }

// Placeholder sets the placeholder attribute.
func Placeholder(p string) Attr { return attr("placeholder", p) }

// renderOption carries a custom render function through El's arguments.
type renderOption struct{ fn view.RenderFunc }

// WithRender gives the element a custom render function that takes
// precedence over its template.
func WithRender(fn view.RenderFunc) any { return renderOption{fn: fn} }
