// Package manager is the connectivity orchestrator. It owns the radio
// driver and switches the device between two mutually exclusive modes:
// station (connect to a known network, maintained by pkg/station) and
// provisioning (host an open access point with a captive portal,
// pkg/provisioning). At most one mode is active at a time; mode
// transitions stop the outgoing component before starting the next.
//
// The manager never holds its own lock while a component starts or
// stops or while an event callback runs, so callbacks may call back
// into the manager.
package manager
