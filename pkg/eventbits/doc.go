// Package eventbits provides a cross-goroutine synchronizable set of
// boolean flags with blocking any-of waits.
//
// A Bits value holds up to 32 flags. Writers set and clear flags
// atomically; waiters block until any flag in a mask is set or a
// timeout elapses. This mirrors the event-group primitive common in
// embedded schedulers and is the only cross-context signalling
// mechanism used by the connectivity components.
//
// Each component owns exactly one Bits for its lifetime; a Bits is
// never shared between two live component instances.
package eventbits
