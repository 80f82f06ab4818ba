package pretty

import (
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/joshyorko/swarmdash/common"
)

// Screen control sequences (CSI). The dashboard draws full frames into the
// alternate screen, so only a handful are needed.

func EnterAltScreen() string {
	return csif("?1049h")
}

func LeaveAltScreen() string {
	return csif("?1049l")
}

// HideCursor makes the cursor invisible (CSI ?25l)
func HideCursor() string {
	return csif("?25l")
}

// ShowCursor makes the cursor visible (CSI ?25h)
func ShowCursor() string {
	return csif("?25h")
}

// Home moves the cursor to the top-left corner (CSI H)
func Home() string {
	return csif("H")
}

// ClearScreen clears the entire screen (CSI 2J)
func ClearScreen() string {
	return csif("2J")
}

// ClearToEnd clears from cursor to end of screen (CSI 0J)
func ClearToEnd() string {
	return csif("0J")
}

// ClearLine clears the rest of the current line (CSI K)
func ClearLine() string {
	return csif("K")
}

// Screen owns the alternate screen while the dashboard runs.
type Screen struct {
	sync.Mutex
	out    io.Writer
	active bool
}

func NewScreen(out io.Writer) *Screen {
	return &Screen{out: out}
}

// Enter switches to the alternate screen and hides the cursor.
func (it *Screen) Enter() error {
	it.Lock()
	defer it.Unlock()
	if it.active {
		return nil
	}
	it.active = true
	_, err := io.WriteString(it.out, EnterAltScreen()+HideCursor()+ClearScreen()+Home())
	return err
}

// Leave restores the primary screen. Safe to call more than once.
func (it *Screen) Leave() error {
	it.Lock()
	defer it.Unlock()
	if !it.active {
		return nil
	}
	it.active = false
	_, err := io.WriteString(it.out, ShowCursor()+LeaveAltScreen())
	return err
}

// Draw repaints the screen with frame. Line endings are written as CRLF,
// since the terminal is in raw mode and does not translate them.
func (it *Screen) Draw(frame string) error {
	it.Lock()
	defer it.Unlock()
	var builder strings.Builder
	builder.Grow(len(frame) + 256)
	builder.WriteString(Home())
	lines := strings.Split(frame, "\n")
	for at, line := range lines {
		builder.WriteString(line)
		builder.WriteString(ClearLine())
		if at < len(lines)-1 {
			builder.WriteString("\r\n")
		}
	}
	builder.WriteString(ClearToEnd())
	_, err := io.WriteString(it.out, builder.String())
	return err
}

// TerminalSize returns width and height of the terminal on fd.
// Falls back to 80x24 if detection fails.
func TerminalSize(fd uintptr) (int, int) {
	width, height, err := term.GetSize(int(fd))
	if err != nil || width <= 0 || height <= 0 {
		common.Trace("Failed to get terminal size, using fallback: %v", err)
		return 80, 24
	}
	return width, height
}

// TerminalHeight returns the terminal height in rows
func TerminalHeight() int {
	_, height := TerminalSize(os.Stdout.Fd())
	return height
}

// TerminalWidth returns the terminal width in columns
func TerminalWidth() int {
	width, _ := TerminalSize(os.Stdout.Fd())
	return width
}
