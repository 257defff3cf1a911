// Package station implements the station (client) connection state
// machine.
//
// The machine scans for networks, ranks the results by signal
// strength, filters them against the stored credentials and works
// through the resulting candidate queue:
//
//	Stopped -> Scanning -> Connecting -> Connected
//	Connected -> Reconnecting (same candidate, bounded retries)
//	           | next candidate
//	           | RescanPending -> Scanning
//
// A candidate gets up to five consecutive reconnect attempts before
// the machine advances to the next queued candidate. When the queue
// drains, a rescan is scheduled with exponential backoff: the interval
// doubles after every failed full scan cycle (capped at the maximum)
// and resets to the minimum on a successful connection.
//
// Transient connection failures are never surfaced as errors; they
// feed the retry/advance/rescan policy. Only Start-time driver
// failures are hard errors.
package station
