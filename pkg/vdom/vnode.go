package vdom

import "github.com/vango-dev/reflex/pkg/view"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <input>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// VNode is an in-memory view node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Text     string   // For KindText
	HID      string   // Hydration ID (assigned by AssignHIDs)

	// Render overrides the data-nf-tpl template when non-nil.
	Render view.RenderFunc
}

// Props holds attributes.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Attr returns the string form of attribute key and whether it is set.
func (v *VNode) Attr(key string) (string, bool) {
	if v == nil || v.Props == nil {
		return "", false
	}
	val, ok := v.Props[key]
	if !ok {
		return "", false
	}
	return attrToString(val), true
}

// SetAttr sets an attribute.
func (v *VNode) SetAttr(key string, value any) {
	if v.Props == nil {
		v.Props = make(Props)
	}
	v.Props[key] = value
}

// IsBound reports whether the element is bound to an entity or to every change.
func (v *VNode) IsBound() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	_, byID := v.Props[AttrBindID]
	_, byAny := v.Props[AttrBindAny]
	return byID || byAny
}

// IsValueNode reports whether rendered content goes to the value attribute.
func (v *VNode) IsValueNode() bool {
	return v != nil && v.Kind == KindElement && valueElements[v.Tag]
}

// TextContent returns the concatenated text of the node and its descendants.
func (v *VNode) TextContent() string {
	if v == nil {
		return ""
	}
	if v.Kind == KindText {
		return v.Text
	}
	var out string
	for _, c := range v.Children {
		out += c.TextContent()
	}
	return out
}

// SetTextContent replaces all children with a single text node.
func (v *VNode) SetTextContent(s string) {
	if v.Kind == KindText {
		v.Text = s
		return
	}
	v.Children = []*VNode{Text(s)}
}

// Value returns the value attribute.
func (v *VNode) Value() string {
	s, _ := v.Attr("value")
	return s
}

// Walk visits v and its descendants depth-first in document order.
// Returning false from fn skips the node's children.
func (v *VNode) Walk(fn func(*VNode) bool) {
	if v == nil {
		return
	}
	if !fn(v) {
		return
	}
	for _, c := range v.Children {
		c.Walk(fn)
	}
}
