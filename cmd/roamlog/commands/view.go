// Package commands implements the roamlog CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/roam-net/roam-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Component *log.Component
	Category  *log.Category
	SSID      string
}

// matches reports whether the event passes the filter.
func (f ViewFilter) matches(event log.Event) bool {
	if f.Component != nil && event.Component != *f.Component {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.SSID != "" && event.SSID != f.SSID {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s %-12s %s", ts, event.Component, event.Category)

	switch event.Category {
	case log.CategoryStateChange:
		if event.OldState != "" {
			fmt.Fprintf(w, " %s -> %s", event.OldState, event.NewState)
		} else {
			fmt.Fprintf(w, " -> %s", event.NewState)
		}

	case log.CategoryScan:
		if event.SSID != "" {
			fmt.Fprintf(w, " ssid=%q rssi=%d ch=%d", event.SSID, event.RSSI, event.Channel)
		}

	case log.CategoryConnect:
		fmt.Fprintf(w, " ssid=%q", event.SSID)
		if event.Attempt > 0 {
			fmt.Fprintf(w, " attempt=%d", event.Attempt)
		}
		if event.RSSI != 0 {
			fmt.Fprintf(w, " rssi=%d", event.RSSI)
		}
		if event.Address != "" {
			fmt.Fprintf(w, " addr=%s", event.Address)
		}

	case log.CategoryDNSQuery:
		fmt.Fprintf(w, " len=%d", event.QueryLen)
		if event.Address != "" {
			fmt.Fprintf(w, " from=%s", event.Address)
		}

	case log.CategoryError:
		fmt.Fprintf(w, " %s", event.Error)
	}

	fmt.Fprintln(w)
}

// ParseComponentFlag parses a component string from a command-line flag
// (case-insensitive).
func ParseComponentFlag(s string) (log.Component, error) {
	switch strings.ToLower(s) {
	case "manager":
		return log.ComponentManager, nil
	case "station":
		return log.ComponentStation, nil
	case "provisioning":
		return log.ComponentProvisioning, nil
	case "dns":
		return log.ComponentDNS, nil
	default:
		return 0, fmt.Errorf("invalid component: %s (must be manager, station, provisioning, or dns)", s)
	}
}

// ParseCategoryFlag parses a category string from a command-line flag
// (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryStateChange, nil
	case "scan":
		return log.CategoryScan, nil
	case "connect":
		return log.CategoryConnect, nil
	case "dns":
		return log.CategoryDNSQuery, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be state, scan, connect, dns, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	events, err := log.ReadEventsFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capture file: %w", err)
	}

	for _, event := range events {
		if !filter.matches(event) {
			continue
		}
		formatEvent(output, event)
	}
	return nil
}
