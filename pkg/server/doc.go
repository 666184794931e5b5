// Package server hosts a reflex App over HTTP.
//
// The host renders a vdom.Document on GET /, pushes node updates to
// browsers over a WebSocket after every flush, and accepts state changes
// as JSON:
//
//	GET  /            the rendered document with the update client
//	GET  /ws          WebSocket stream of sync and update messages
//	GET  /state       snapshots of every root entity
//	GET  /state/{id}  snapshot of one entity
//	POST /state/{id}  merge a JSON object into the entity
//	GET  /metrics     Prometheus metrics (when a gatherer is configured)
//
// Mutations made through POST /state go through the reactive graph, so
// they are flushed by the App's loop like any other write. The loop must be
// running (App.Run) for updates to reach the document.
//
// # Wire Protocol
//
// Every WebSocket message is a JSON object:
//
//	{"type": "sync",   "nodes": [{"hid": "h1", "kind": "text", "content": "Hello a"}]}
//	{"type": "update", "nodes": [{"hid": "h1", "entity": "1", "kind": "text", "content": "Hello b"}]}
//	{"type": "error",  "error": "R003: Template render failed"}
//
// A sync message is sent once on connect with the current content of every
// bound node. Update messages follow each flush.
package server
