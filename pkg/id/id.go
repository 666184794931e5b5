// Package id hands out stable external identifiers for reactive entities.
//
// Identifiers are decimal strings of a monotonically increasing counter:
//
//	ids := id.NewAllocator()
//	ids.Next()  // "1"
//	ids.Next()  // "2"
//
//	todo := ids.WithID(map[string]any{"title": "write tests"})
//	// todo["id"] == "3"
package id

import (
	"strconv"
	"sync/atomic"
)

// Key is the property under which WithID stores the identifier.
const Key = "id"

// Allocator generates unique identifiers.
// The zero value is ready to use and starts at "1".
type Allocator struct {
	gen atomic.Uint64
}

// NewAllocator returns an allocator whose first identifier is "1".
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the next identifier. Identifiers are never reused and
// compare strictly increasing when parsed as integers.
func (a *Allocator) Next() string {
	return strconv.FormatUint(a.gen.Add(1), 10)
}

// WithID assigns a fresh identifier to m under Key and returns m.
// A nil map is replaced by a new one.
func (a *Allocator) WithID(m map[string]any) map[string]any {
	if m == nil {
		m = make(map[string]any, 1)
	}
	m[Key] = a.Next()
	return m
}

var defaultAllocator Allocator

// Next returns the next identifier from the process-wide allocator.
func Next() string {
	return defaultAllocator.Next()
}

// WithID assigns an identifier from the process-wide allocator.
func WithID(m map[string]any) map[string]any {
	return defaultAllocator.WithID(m)
}
