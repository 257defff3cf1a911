package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/roam-net/roam-go/pkg/log"
)

// exportRecord is the JSONL representation of one event. Component and
// category are rendered as names rather than wire integers.
type exportRecord struct {
	Timestamp string `json:"timestamp"`
	Component string `json:"component"`
	Category  string `json:"category"`
	OldState  string `json:"old_state,omitempty"`
	NewState  string `json:"new_state,omitempty"`
	SSID      string `json:"ssid,omitempty"`
	RSSI      int    `json:"rssi,omitempty"`
	Channel   uint8  `json:"channel,omitempty"`
	Address   string `json:"address,omitempty"`
	Attempt   int    `json:"attempt,omitempty"`
	QueryLen  int    `json:"query_len,omitempty"`
	Error     string `json:"error,omitempty"`
}

func toRecord(event log.Event) exportRecord {
	return exportRecord{
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		Component: event.Component.String(),
		Category:  event.Category.String(),
		OldState:  event.OldState,
		NewState:  event.NewState,
		SSID:      event.SSID,
		RSSI:      event.RSSI,
		Channel:   event.Channel,
		Address:   event.Address,
		Attempt:   event.Attempt,
		QueryLen:  event.QueryLen,
		Error:     event.Error,
	}
}

// RunExport exports the capture file to the specified format.
func RunExport(path, format, output string) error {
	events, err := log.ReadEventsFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capture file: %w", err)
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(events, w)
	case "csv":
		return exportCSV(events, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(events []log.Event, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for _, event := range events {
		if err := encoder.Encode(toRecord(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(events []log.Event, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "component", "category", "old_state", "new_state", "ssid", "rssi", "channel", "address", "attempt", "query_len", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, event := range events {
		rec := toRecord(event)
		row := []string{
			rec.Timestamp,
			rec.Component,
			rec.Category,
			rec.OldState,
			rec.NewState,
			rec.SSID,
			strconv.Itoa(rec.RSSI),
			strconv.Itoa(int(rec.Channel)),
			rec.Address,
			strconv.Itoa(rec.Attempt),
			strconv.Itoa(rec.QueryLen),
			rec.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
