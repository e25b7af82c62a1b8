package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/bthost-project/bthost-go/pkg/log"
)

// RunFilter reads the log file and writes matching events to a new log
// file in the same CBOR format.
func RunFilter(path, output string, filter log.Filter) error {
	if output == "" {
		return fmt.Errorf("output file path required")
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	encoder := log.NewEncoder(out)
	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
		count++
	}

	fmt.Printf("Wrote %d events to %s\n", count, output)
	return nil
}
