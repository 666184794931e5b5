package view

// NodeKind distinguishes how a node displays rendered content.
type NodeKind uint8

const (
	// KindText nodes show content as their text.
	KindText NodeKind = iota

	// KindValue nodes are input-like and show content as their value.
	KindValue
)

// String returns the string representation of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

// RenderFunc renders a node from its variables ("all" and "data").
// (*tmpl.Template).Render has this signature.
type RenderFunc func(vars map[string]any) (string, error)

// Node is a view node that can display rendered content.
type Node interface {
	// Kind reports whether content goes to SetText or SetValue.
	Kind() NodeKind

	// Renderer returns the node's custom render function, or nil.
	Renderer() RenderFunc

	// Template returns the node's template source, or "".
	Template() string

	// SetText replaces the node's text content.
	SetText(content string)

	// SetValue replaces the node's value.
	SetValue(content string)
}

// Layer resolves bindings to nodes.
type Layer interface {
	// NodesByID returns the nodes bound to the entity id.
	NodesByID(id string) []Node

	// AnyNodes returns the nodes bound to every change.
	AnyNodes() []Node
}
