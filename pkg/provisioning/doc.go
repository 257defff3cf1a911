// Package provisioning implements the self-hosted provisioning mode.
//
// When no known network is reachable, the device hosts an open access
// point whose clients are funnelled to the provisioning web UI by the
// captive-portal DNS responder. The package owns three pieces:
//
//   - AccessPoint: AP bring-up, the DNS responder, a periodic scan so
//     the web UI can list nearby networks, and an mDNS announcement of
//     the provisioning endpoint for clients that ignore the portal.
//   - Verifier: the synchronous credential test the web UI runs before
//     persisting a candidate network.
//
// The web UI itself is an external collaborator: it consumes LastScan,
// Verifier.TryConnect and the credential store, and signals completion
// through RequestExit.
package provisioning
