// Package radio defines the interface between the connectivity stack
// and the underlying wireless driver.
//
// The driver is treated as a black box: the stack issues imperative
// commands (configure, connect, scan) and consumes an asynchronous
// event stream. Events are delivered on a driver-managed goroutine,
// one at a time per subscriber, so handlers never run concurrently
// with themselves.
//
// The package also provides IssueConnect, the shared
// "validate + configure + connect" primitive used by both the station
// state machine (callback completion) and the provisioning verifier
// (blocking completion).
package radio
