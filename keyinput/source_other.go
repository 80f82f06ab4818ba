//go:build !unix

package keyinput

import (
	"bufio"
	"os"
	"time"
)

type readResult struct {
	b   byte
	err error
}

type chanSource struct {
	bytes chan readResult
	err   error
}

// NewSource reads single bytes from file on a background goroutine.
func NewSource(file *os.File) Source {
	source := &chanSource{bytes: make(chan readResult, 64)}
	go func() {
		reader := bufio.NewReader(file)
		for {
			b, err := reader.ReadByte()
			source.bytes <- readResult{b: b, err: err}
			if err != nil {
				close(source.bytes)
				return
			}
		}
	}()
	return source
}

func (it *chanSource) Next(timeout time.Duration) (byte, bool, error) {
	if it.err != nil {
		return 0, false, it.err
	}
	var result readResult
	var ok bool
	if timeout <= 0 {
		select {
		case result, ok = <-it.bytes:
		default:
			return 0, false, nil
		}
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case result, ok = <-it.bytes:
		case <-timer.C:
			return 0, false, nil
		}
	}
	if !ok {
		return 0, false, it.err
	}
	if result.err != nil {
		it.err = result.err
		return 0, false, result.err
	}
	return result.b, true, nil
}
