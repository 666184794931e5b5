package vdom

import (
	"github.com/vango-dev/reflex/pkg/view"
)

// Document is a view layer over a VNode tree. It implements view.Layer by
// selecting bound elements by attribute, the way a browser would with
// querySelectorAll.
type Document struct {
	Root *VNode
}

// NewDocument creates a document and assigns HIDs to its bound elements.
func NewDocument(root *VNode) *Document {
	AssignHIDs(root, NewHIDGenerator())
	return &Document{Root: root}
}

// QueryAttr returns the elements that carry attribute key, in document order.
func (d *Document) QueryAttr(key string) []*VNode {
	var out []*VNode
	d.Root.Walk(func(n *VNode) bool {
		if n.Kind == KindElement {
			if _, ok := n.Props[key]; ok {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// QueryAttrValue returns the elements whose attribute key equals value.
func (d *Document) QueryAttrValue(key, value string) []*VNode {
	var out []*VNode
	for _, n := range d.QueryAttr(key) {
		if v, _ := n.Attr(key); v == value {
			out = append(out, n)
		}
	}
	return out
}

// NodesByID implements view.Layer.
func (d *Document) NodesByID(id string) []view.Node {
	return asViewNodes(d.QueryAttrValue(AttrBindID, id))
}

// AnyNodes implements view.Layer.
func (d *Document) AnyNodes() []view.Node {
	return asViewNodes(d.QueryAttr(AttrBindAny))
}

// Bound returns the view.Node adapter for n.
func Bound(n *VNode) view.Node {
	return boundNode{n: n}
}

// NodeOf returns the VNode behind a node produced by this package, or nil.
func NodeOf(n view.Node) *VNode {
	if b, ok := n.(boundNode); ok {
		return b.n
	}
	return nil
}

func asViewNodes(nodes []*VNode) []view.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]view.Node, len(nodes))
	for i, n := range nodes {
		out[i] = boundNode{n: n}
	}
	return out
}

// boundNode adapts a VNode to view.Node.
type boundNode struct {
	n *VNode
}

func (b boundNode) Kind() view.NodeKind {
	if b.n.IsValueNode() {
		return view.KindValue
	}
	return view.KindText
}

func (b boundNode) Renderer() view.RenderFunc { return b.n.Render }

func (b boundNode) Template() string {
	s, _ := b.n.Attr(AttrTemplate)
	return s
}

func (b boundNode) SetText(content string) { b.n.SetTextContent(content) }

func (b boundNode) SetValue(content string) { b.n.SetAttr("value", content) }
