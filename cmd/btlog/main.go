// Command btlog is a tool for viewing and analyzing engine event log files.
//
// Log files are created by the connection engine's CBOR file logger,
// e.g. when running btconnctl with the -log-file flag.
//
// Usage:
//
//	btlog <command> [flags] <file.btlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	btlog view events.btlog
//
//	# View only state transitions for one device
//	btlog view --category state --device 00:11:22:33:44:55 events.btlog
//
//	# Export warnings and errors to JSONL
//	btlog export --format jsonl events.btlog
//
//	# Keep one engine's trace in a new file
//	btlog filter --engine-id 6ba7b810 -o engine.btlog events.btlog
//
//	# Show statistics
//	btlog stats events.btlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bthost-project/bthost-go/cmd/btlog/commands"
	"github.com/bthost-project/bthost-go/pkg/log"
)

const usage = `btlog - Connection Engine Log Analyzer

Usage:
  btlog <command> [flags] <file.btlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "btlog <command> -help" for more information about a command.
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
	case "filter":
		runFilter(args)
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

// filterFlags registers the shared filter flags on fs and returns a
// builder that assembles the log.Filter after parsing.
func filterFlags(fs *flag.FlagSet) func() (log.Filter, error) {
	engineID := fs.String("engine-id", "", "Filter by engine instance ID")
	dev := fs.String("device", "", "Filter by device address")
	prof := fs.String("profile", "", "Filter by profile name")
	category := fs.String("category", "", "Filter by category (state, native, timer, error)")
	minSeverity := fs.String("min-severity", "", "Minimum severity (debug, info, warn, error)")

	return func() (log.Filter, error) {
		filter := log.Filter{
			EngineID: *engineID,
			Device:   *dev,
			Profile:  *prof,
		}
		if *category != "" {
			c, err := commands.ParseCategoryFlag(*category)
			if err != nil {
				return filter, err
			}
			filter.Category = &c
		}
		if *minSeverity != "" {
			s, err := commands.ParseSeverityFlag(*minSeverity)
			if err != nil {
				return filter, err
			}
			filter.MinSeverity = &s
		}
		return filter, nil
	}
}

func parseOrExit(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	path := parseOrExit(fs, args)

	filter, err := buildFilter()
	if err != nil {
		fatal(err)
	}
	if err := commands.View(os.Stdout, path, filter); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default stdout)")
	path := parseOrExit(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	buildFilter := filterFlags(fs)
	output := fs.String("o", "", "Output file (required)")
	path := parseOrExit(fs, args)

	filter, err := buildFilter()
	if err != nil {
		fatal(err)
	}
	if err := commands.RunFilter(path, *output, filter); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	path := parseOrExit(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
