package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/roam-net/roam-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByComponent map[log.Component]int
	EventsByCategory  map[log.Category]int
	ConnectAttempts   map[string]int
	DNSQueries        int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// Collect aggregates statistics over a slice of events.
func Collect(events []log.Event) *Stats {
	stats := &Stats{
		EventsByComponent: make(map[log.Component]int),
		EventsByCategory:  make(map[log.Category]int),
		ConnectAttempts:   make(map[string]int),
	}

	for _, event := range events {
		stats.TotalEvents++
		stats.EventsByComponent[event.Component]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		switch event.Category {
		case log.CategoryConnect:
			if event.SSID != "" && event.Attempt > 0 {
				stats.ConnectAttempts[event.SSID]++
			}
		case log.CategoryDNSQuery:
			stats.DNSQueries++
		case log.CategoryError:
			stats.Errors++
		}
	}
	return stats
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	events, err := log.ReadEventsFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capture file: %w", err)
	}

	printStats(w, Collect(events))
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Connectivity Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Component:")
	for _, c := range []log.Component{log.ComponentManager, log.ComponentStation, log.ComponentProvisioning, log.ComponentDNS} {
		if count := stats.EventsByComponent[c]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, c := range []log.Category{log.CategoryStateChange, log.CategoryScan, log.CategoryConnect, log.CategoryDNSQuery, log.CategoryError} {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", c.String()+":", count)
		}
	}

	if len(stats.ConnectAttempts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Connect Attempts by SSID:")
		ssids := make([]string, 0, len(stats.ConnectAttempts))
		for ssid := range stats.ConnectAttempts {
			ssids = append(ssids, ssid)
		}
		sort.Strings(ssids)
		for _, ssid := range ssids {
			fmt.Fprintf(w, "  %-14s %d\n", ssid+":", stats.ConnectAttempts[ssid])
		}
	}

	if stats.DNSQueries > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "DNS Queries Answered: %d\n", stats.DNSQueries)
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
