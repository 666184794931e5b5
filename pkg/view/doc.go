// Package view pushes reactive state into bound view nodes.
//
// The view layer is external: it answers which nodes are bound to an entity
// id, which nodes want every change, and how each node renders. A
// Synchronizer drains the graph's dirty set and re-renders each bound node
// with two variables:
//
//	all   the snapshots of every live root entity
//	data  the snapshot of the entity the node is bound to (nil for wildcard nodes)
//
// Wildcard ("any change") nodes are re-rendered on every flush, whether or
// not anything is dirty.
package view
