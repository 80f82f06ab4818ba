// Package keyinput turns raw terminal bytes into bubbletea key and mouse
// messages. It reads one byte at a time from a Source so the render loop
// can poll it without blocking.
package keyinput

import (
	"bytes"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	DefaultEscapeWindow = 80 * time.Millisecond
	DefaultPollSlice    = 5 * time.Millisecond

	escape      = 0x1b
	maxSequence = 64
)

// Source yields single input bytes. Next waits at most timeout (zero means
// do not wait) and reports false when nothing arrived in time.
type Source interface {
	Next(timeout time.Duration) (byte, bool, error)
}

// Decoder classifies input bytes into messages:
//   - printable ASCII becomes a rune key, tab becomes tea.KeyTab, other
//     control bytes become their ctrl key;
//   - ESC opens a short window that collects the rest of an escape
//     sequence, which decodes to a wheel event, left/right, or plain esc.
type Decoder struct {
	source       Source
	escapeWindow time.Duration
	pollSlice    time.Duration
	now          func() time.Time
	err          error
}

// NewDecoder wraps source. Zero durations take the defaults.
func NewDecoder(source Source, escapeWindow, pollSlice time.Duration) *Decoder {
	if escapeWindow <= 0 {
		escapeWindow = DefaultEscapeWindow
	}
	if pollSlice <= 0 {
		pollSlice = DefaultPollSlice
	}
	return &Decoder{
		source:       source,
		escapeWindow: escapeWindow,
		pollSlice:    pollSlice,
		now:          time.Now,
	}
}

// Err returns the first read error seen; after it the decoder yields nothing.
func (d *Decoder) Err() error {
	return d.err
}

// Poll returns the next message if input is ready. It never blocks longer
// than the escape window.
func (d *Decoder) Poll() (tea.Msg, bool) {
	for d.err == nil {
		b, ok := d.read(0)
		if !ok {
			return nil, false
		}
		switch {
		case b == escape:
			return classify(d.collectSequence()), true
		case b == '\t':
			return tea.KeyMsg{Type: tea.KeyTab}, true
		case b >= 0x20 && b < 0x7f:
			return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{rune(b)}}, true
		case b < 0x20 || b == 0x7f:
			return tea.KeyMsg{Type: tea.KeyType(b)}, true
		}
		// Bytes of multi-byte characters carry no command; skip them.
	}
	return nil, false
}

// Drain hands every ready message to handle.
func (d *Decoder) Drain(handle func(tea.Msg)) int {
	count := 0
	for {
		msg, ok := d.Poll()
		if !ok {
			return count
		}
		handle(msg)
		count++
	}
}

func (d *Decoder) read(timeout time.Duration) (byte, bool) {
	b, ok, err := d.source.Next(timeout)
	if err != nil {
		d.err = err
		return 0, false
	}
	return b, ok
}

// collectSequence gathers the bytes following ESC until the window closes
// or input pauses for a poll slice.
func (d *Decoder) collectSequence() []byte {
	sequence := make([]byte, 0, 16)
	deadline := d.now().Add(d.escapeWindow)
	for len(sequence) < maxSequence && d.now().Before(deadline) {
		b, ok := d.read(d.pollSlice)
		if !ok {
			break
		}
		sequence = append(sequence, b)
	}
	return sequence
}

// classify decodes the bytes after ESC. Anything unrecognized is esc.
func classify(sequence []byte) tea.Msg {
	if msg, ok := sgrMouse(sequence); ok {
		return msg
	}
	if msg, ok := x10Mouse(sequence); ok {
		return msg
	}
	if len(sequence) >= 2 && (sequence[0] == '[' || sequence[0] == 'O') {
		switch sequence[len(sequence)-1] {
		case 'C':
			return tea.KeyMsg{Type: tea.KeyRight}
		case 'D':
			return tea.KeyMsg{Type: tea.KeyLeft}
		}
	}
	return tea.KeyMsg{Type: tea.KeyEsc}
}

// sgrMouse decodes "[<b;x;yM" (or m). Unparsable numbers degrade to a
// button of -1 at 0,0, which is never a wheel event.
func sgrMouse(sequence []byte) (tea.Msg, bool) {
	if !bytes.HasPrefix(sequence, []byte("[<")) || len(sequence) < 3 {
		return nil, false
	}
	last := sequence[len(sequence)-1]
	if last != 'M' && last != 'm' {
		return nil, false
	}
	fields := bytes.Split(sequence[2:len(sequence)-1], []byte(";"))
	if len(fields) != 3 {
		return nil, false
	}
	button, errB := strconv.Atoi(string(fields[0]))
	x, errX := strconv.Atoi(string(fields[1]))
	y, errY := strconv.Atoi(string(fields[2]))
	if errB != nil || errX != nil || errY != nil {
		button, x, y = -1, 0, 0
	}
	return wheel(button, x, y)
}

// x10Mouse decodes "[M" followed by three bytes offset by 32.
func x10Mouse(sequence []byte) (tea.Msg, bool) {
	if !bytes.HasPrefix(sequence, []byte("[M")) || len(sequence) < 5 {
		return nil, false
	}
	button := int(sequence[2]) - 32
	x := max(1, int(sequence[3])-32)
	y := max(1, int(sequence[4])-32)
	return wheel(button, x, y)
}

// wheel reports button codes with bit 6 set: bit 0 clear scrolls up,
// bit 0 set scrolls down.
func wheel(button, x, y int) (tea.Msg, bool) {
	if button < 0 || button&64 == 0 {
		return nil, false
	}
	event := tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp}
	if button&1 == 1 {
		event.Button = tea.MouseButtonWheelDown
	}
	return event, true
}

// IsWheel reports whether msg is a wheel event and its direction: -1 for
// up, +1 for down.
func IsWheel(msg tea.Msg) (tea.MouseMsg, int, bool) {
	event, ok := msg.(tea.MouseMsg)
	if !ok {
		return event, 0, false
	}
	switch event.Button {
	case tea.MouseButtonWheelUp:
		return event, -1, true
	case tea.MouseButtonWheelDown:
		return event, 1, true
	}
	return event, 0, false
}
