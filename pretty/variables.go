package pretty

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/joshyorko/swarmdash/common"
	"github.com/joshyorko/swarmdash/dashcore"
	"github.com/joshyorko/swarmdash/logbuf"
)

var (
	Colorless    bool
	Iconic       bool
	Disabled     bool
	Interactive  bool
	// ScreenOutput is true when stdout alone is a terminal.
	ScreenOutput bool
	White        string
	Grey         string
	Red          string
	Green        string
	Blue         string
	Yellow       string
	Magenta      string
	Cyan         string
	Reset        string
	Bold         string
	Faint        string
)

func csi(value string) string {
	return fmt.Sprintf("\x1b[%s", value)
}

func csif(form string, details ...interface{}) string {
	return csi(fmt.Sprintf(form, details...))
}

// Setup detects terminal capabilities once, at startup.
func Setup() {
	stdin := isatty.IsTerminal(os.Stdin.Fd())
	stdout := isatty.IsTerminal(os.Stdout.Fd())
	stderr := isatty.IsTerminal(os.Stderr.Fd())

	if os.Getenv("NO_COLOR") != "" {
		Colorless = true
	}
	if os.Getenv("TERM") == "" || os.Getenv("TERM") == "dumb" {
		Colorless = true
	}

	Interactive = stdin && stdout && stderr
	ScreenOutput = stdout
	Iconic = stdout && !Colorless
	dashcore.Iconic = Iconic
	logbuf.Iconic = Iconic

	visualOutput := stdout && !Colorless

	common.Trace("Interactive mode enabled: %v; colors enabled: %v; icons enabled: %v", Interactive, visualOutput && !Disabled, Iconic)
	if visualOutput && !Disabled {
		White = csi("97m")
		Grey = csi("90m")
		Red = csi("91m")
		Green = csi("92m")
		Yellow = csi("93m")
		Blue = csi("94m")
		Magenta = csi("95m")
		Cyan = csi("96m")
		Reset = csi("0m")
		Bold = csi("1m")
		Faint = csi("2m")
	}
}

// Highlight outputs a message in bold with a newline.
func Highlight(format string, details ...interface{}) {
	common.Stdout("%s%s%s\n", Bold, fmt.Sprintf(format, details...), Reset)
}

// Warning outputs a warning message in yellow with a newline.
func Warning(format string, details ...interface{}) {
	common.Stdout("%s%s%s\n", Yellow, fmt.Sprintf(format, details...), Reset)
}
