package pretty

import (
	"os"
	"strings"
)

// Color support for the plain-text outputs (log printer, summaries).
// Respects NO_COLOR, COLORTERM and TERM.

// ColorMode represents the level of color support available in the terminal
type ColorMode int

const (
	// ColorModeNone indicates no color support (NO_COLOR set or dumb terminal)
	ColorModeNone ColorMode = iota
	// ColorModeBasic indicates 16 basic ANSI colors
	ColorModeBasic
	// ColorMode256 indicates 256-color palette support
	ColorMode256
	// ColorModeTrueColor indicates 24-bit RGB support
	ColorModeTrueColor
)

var (
	detectedColorMode ColorMode
	colorModeDetected bool
)

// DetectColorMode checks environment variables to determine terminal color capabilities.
// Checks in order: NO_COLOR, COLORTERM, TERM.
func DetectColorMode() ColorMode {
	if colorModeDetected {
		return detectedColorMode
	}
	detectedColorMode = detectColorMode()
	colorModeDetected = true
	return detectedColorMode
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorModeNone
	}
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return ColorModeNone
	}
	if strings.Contains(term, "256color") {
		return ColorMode256
	}
	return ColorModeBasic
}

// SeverityColor returns the ANSI color for an event level.
// Mappings: debug→gray, info→white, warn→yellow, error→red, critical→bright red+bold
func SeverityColor(level string) string {
	if Colorless || Disabled {
		return ""
	}

	switch strings.ToLower(level) {
	case "trace":
		return Faint
	case "debug":
		return Grey
	case "info":
		return White
	case "warning", "warn":
		return Yellow
	case "error":
		return Red
	case "critical", "fatal":
		return csif("91;1m")
	default:
		return ""
	}
}

// StatusColor returns the ANSI color for a task status.
func StatusColor(status string) string {
	if Colorless || Disabled {
		return ""
	}

	switch strings.ToLower(status) {
	case "pending", "idle":
		return Blue
	case "assigned":
		return Cyan
	case "running":
		return Yellow
	case "complete", "merged":
		return Green
	case "failed", "cancelled", "conflict":
		return Red
	default:
		return ""
	}
}

// Color256 returns an ANSI escape code for 256-color foreground text.
// Returns empty string if the terminal doesn't support 256 colors.
// Valid range: 0-255
func Color256(n int) string {
	if Colorless || Disabled {
		return ""
	}
	if DetectColorMode() < ColorMode256 {
		return ""
	}
	if n < 0 || n > 255 {
		return ""
	}
	return csif("38;5;%dm", n)
}
