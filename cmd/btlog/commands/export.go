package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bthost-project/bthost-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

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
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "engine_id", "device", "profile", "severity", "category", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.EngineID,
			event.Device,
			event.Profile,
			event.Severity.String(),
			event.Category.String(),
			eventDetail(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// eventDetail condenses the type-specific payload to one cell.
func eventDetail(event log.Event) string {
	switch {
	case event.StateChange != nil:
		sc := event.StateChange
		if sc.Trigger != "" {
			return fmt.Sprintf("%s->%s (%s)", sc.From, sc.To, sc.Trigger)
		}
		return fmt.Sprintf("%s->%s", sc.From, sc.To)
	case event.NativeCall != nil:
		return fmt.Sprintf("%s accepted=%t", event.NativeCall.Op, event.NativeCall.Accepted)
	case event.Timer != nil:
		return fmt.Sprintf("%s %s", event.Timer.Kind, event.Timer.Op)
	case event.Error != nil:
		return event.Error.Kind
	default:
		return ""
	}
}
