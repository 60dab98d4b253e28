package ingestion

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// maxLineBytes bounds a single dump line. Steps carrying large operator
// data blobs stay well under this.
const maxLineBytes = 1 << 20

// ReadInitDump reads an initialization dump: one pipeline change record per
// line, together describing the pipeline at time zero. Blank lines are
// skipped.
func ReadInitDump(r io.Reader) ([]PipelineChange, error) {
	var changes []PipelineChange

	err := eachLine(r, func(data []byte) error {
		change, err := DecodePipelineChange(data)
		if err != nil {
			return err
		}

		changes = append(changes, change)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return changes, nil
}

// ReadExecutionDump reads an execution dump: one debug-step record per
// line, in event order. Blank lines are skipped.
func ReadExecutionDump(r io.Reader) ([]DebugStep, error) {
	var steps []DebugStep

	err := eachLine(r, func(data []byte) error {
		step, err := DecodeDebugStep(data)
		if err != nil {
			return err
		}

		steps = append(steps, step)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return steps, nil
}

func eachLine(r io.Reader, fn func(data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0

	for scanner.Scan() {
		line++

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		if err := fn(data); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read dump: %w", err)
	}

	return nil
}
