// Package credentials manages stored network credentials.
//
// The connectivity stack consumes the Store interface only: the
// station state machine filters scan results against List, and the
// provisioning web UI (an external collaborator) calls Add after a
// successful verification. FileStore is the default JSON-file-backed
// implementation for devices with a writable filesystem.
//
// The entry at index 0 is the default network; SetDefault moves an
// entry to the front. DerivePSK computes the WPA2 pairwise master key
// for drivers that take a precomputed PSK instead of a passphrase.
package credentials
