package keyinput

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Mouse reporting: button press/drag with wheel, SGR coordinates.
const (
	EnableMouse  = "\x1b[?1000h\x1b[?1002h\x1b[?1006h"
	DisableMouse = "\x1b[?1000l\x1b[?1002l\x1b[?1006l"
)

var ErrNotTerminal = errors.New("input is not a terminal")

// Terminal owns raw mode and mouse reporting for the dashboard session.
type Terminal struct {
	input  *os.File
	output io.Writer
	state  *term.State
	once   sync.Once
	err    error
}

// OpenTerminal switches input to raw mode and enables mouse reporting on
// output. Callers must defer Restore.
func OpenTerminal(input *os.File, output io.Writer) (*Terminal, error) {
	fd := int(input.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	if _, err := io.WriteString(output, EnableMouse); err != nil {
		term.Restore(fd, state)
		return nil, fmt.Errorf("enable mouse: %w", err)
	}
	return &Terminal{input: input, output: output, state: state}, nil
}

// Source reads from the terminal input.
func (it *Terminal) Source() Source {
	return NewSource(it.input)
}

// Restore disables mouse reporting and leaves raw mode. Only the first
// call does anything.
func (it *Terminal) Restore() error {
	it.once.Do(func() {
		_, writeErr := io.WriteString(it.output, DisableMouse)
		restoreErr := term.Restore(int(it.input.Fd()), it.state)
		it.err = errors.Join(writeErr, restoreErr)
	})
	return it.err
}
