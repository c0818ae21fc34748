package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/mash-protocol/lwm2m-go/pkg/log"
)

// RunFilter filters the trace file and writes matching events to output.
// It returns the number of events written.
func RunFilter(path, output string, filter log.Filter) (int, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	// Create file logger to write filtered events
	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output trace: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Close()
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if n := logger.Dropped(); n > 0 {
		logger.Close()
		return count - n, fmt.Errorf("failed to write %d events to %s", n, output)
	}
	return count, logger.Close()
}
