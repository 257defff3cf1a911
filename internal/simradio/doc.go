// Package simradio is an in-memory radio driver. It simulates a
// configurable radio environment (visible networks, their passwords,
// connect latency) and delivers driver events on a single dispatch
// goroutine, one at a time, in emission order. Tests and the demo
// binary use it in place of real hardware.
package simradio
