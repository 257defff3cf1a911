// Command roamlog is a tool for viewing and analyzing connectivity
// event capture files.
//
// Capture files are created by running roamd with the -event-log flag,
// or by any application that wires a log.FileLogger into the
// connectivity stack.
//
// Usage:
//
//	roamlog <command> [flags] <file.rlog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSONL or CSV format
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	roamlog view session.rlog
//
//	# View only station events
//	roamlog view --component station session.rlog
//
//	# Export to JSONL
//	roamlog export --format jsonl session.rlog
//
//	# Show statistics
//	roamlog stats session.rlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/roam-net/roam-go/cmd/roamlog/commands"
)

const usage = `roamlog - Connectivity Event Log Analyzer

Usage:
  roamlog <command> [flags] <file.rlog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSONL or CSV format
  stats    Show statistics about the capture file

Use "roamlog <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `roamlog view - View capture file in human-readable format

Usage:
  roamlog view [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	component := fs.String("component", "", "Filter by component (manager, station, provisioning, dns)")
	category := fs.String("category", "", "Filter by category (state, scan, connect, dns, error)")
	ssid := fs.String("ssid", "", "Filter by SSID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	var filter commands.ViewFilter

	if *component != "" {
		c, err := commands.ParseComponentFlag(*component)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Component = &c
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	filter.SSID = *ssid

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `roamlog export - Export capture file to JSONL or CSV format

Usage:
  roamlog export [flags] <file.rlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `roamlog stats - Show statistics about the capture file

Usage:
  roamlog stats <file.rlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
