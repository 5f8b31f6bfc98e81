// Package bus provides the event primitives, listener registry, and
// lock-guarded emitter that workers use to report progress. Events are
// dispatched synchronously on the emitting goroutine to every matching
// listener, driving milestone evaluation and the status display.
package bus
