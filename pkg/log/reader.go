package log

import (
	"errors"
	"io"
	"os"
)

// ReadEvents reads all events from r until EOF.
// A truncated trailing record (crash mid-write) is ignored.
func ReadEvents(r io.Reader) ([]Event, error) {
	dec := NewDecoder(r)

	var events []Event
	for {
		var event Event
		err := dec.Decode(&event)
		if err == io.EOF {
			return events, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

// ReadEventsFile reads all events from a log file.
func ReadEventsFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEvents(f)
}
