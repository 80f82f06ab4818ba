package feed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/dashboard"
)

// MaxLineSize bounds a single NDJSON line. Longer lines are skipped.
const MaxLineSize = 4 * 1024 * 1024

const readBufferSize = 64 * 1024

// EachLine calls handle for every line of reader, without the line ending.
// Lines longer than MaxLineSize are skipped whole and counted. The slice
// passed to handle is only valid during the call. It returns the first
// read error other than io.EOF.
func EachLine(reader io.Reader, handle func(line []byte)) (oversized int, err error) {
	lines := bufio.NewReaderSize(reader, readBufferSize)
	var line []byte
	skipping := false
	for {
		fragment, more, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			return oversized, nil
		}
		if err != nil {
			return oversized, err
		}
		if !skipping && len(line)+len(fragment) > MaxLineSize {
			skipping = true
			line = nil
		}
		if !skipping {
			line = append(line, fragment...)
		}
		if more {
			continue
		}
		if skipping {
			oversized++
			skipping = false
			continue
		}
		handle(line)
		if cap(line) > readBufferSize {
			line = nil
		} else {
			line = line[:0]
		}
	}
}

// Pump parses NDJSON lines from reader into the queue until EOF. Blank,
// malformed and oversized lines are dropped. It returns the read error, if
// any, and does not close the queue.
func Pump(reader io.Reader, queue *Queue) error {
	dropped := 0
	oversized, err := EachLine(reader, func(line []byte) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			return
		}
		event, err := dashboard.ParseEvent(line)
		if err != nil {
			dropped++
			common.Trace("dropping line: %v", err)
			return
		}
		queue.Push(event)
	})
	if dropped > 0 {
		common.Debug("dropped %d malformed lines", dropped)
	}
	if oversized > 0 {
		common.Debug("dropped %d lines over %d bytes", oversized, MaxLineSize)
	}
	if err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// ReadStream pumps reader into the queue, turns a read failure into a
// synthetic error event and always ends the stream.
func ReadStream(reader io.Reader, queue *Queue) {
	defer queue.Close()
	if err := Pump(reader, queue); err != nil {
		common.Error("stream", err)
		queue.Push(ErrorEvent(err, time.Now()))
	}
}
