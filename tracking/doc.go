// Package tracking is the core of the location pipeline.
//
// This package handles:
// - Persisting normalized location observations and their history rows
// - Event-driven presence (online on any event, offline only explicitly)
// - Immediate presence notifications on offline-to-online transitions
// - Rate-bounded live broadcasts through a per-device coalescer
//
// The Coalescer guarantees at most one emission per device per window while
// always carrying the freshest payload received in that window.
package tracking
