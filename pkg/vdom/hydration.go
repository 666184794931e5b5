package vdom

import (
	"fmt"
	"sync"
)

// HIDGenerator generates unique hydration IDs for bound elements.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next hydration ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Reset resets the counter to 0.
func (g *HIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter = 0
}

// AssignHIDs walks the tree and assigns HIDs to bound elements that do not
// have one yet.
func AssignHIDs(node *VNode, gen *HIDGenerator) {
	node.Walk(func(n *VNode) bool {
		if n.IsBound() && n.HID == "" {
			n.HID = gen.Next()
		}
		return true
	})
}

// CollectHIDs returns a map of HID to VNode for all nodes with HIDs.
func CollectHIDs(node *VNode) map[string]*VNode {
	out := make(map[string]*VNode)
	node.Walk(func(n *VNode) bool {
		if n.HID != "" {
			out[n.HID] = n
		}
		return true
	})
	return out
}
