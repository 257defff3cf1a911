// Package captivedns implements the captive-portal DNS responder.
//
// During provisioning the device hosts its own access point. Operating
// systems probe connectivity with a DNS lookup; the responder answers
// every query with the device's own address, which forces the
// captive-portal detection to fire and surfaces the provisioning UI.
//
// This is deliberately not a DNS server: the query is never parsed
// beyond its header. The response is the query datagram with the
// header flags patched and a single synthetic A record appended.
package captivedns
