package pretty

import (
	"bytes"
	"os"
	"testing"
)

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name      string
		noColor   string
		colorterm string
		term      string
		expected  ColorMode
	}{
		{
			name:     "NO_COLOR disables colors",
			noColor:  "1",
			term:     "xterm-256color",
			expected: ColorModeNone,
		},
		{
			name:      "COLORTERM=truecolor enables true color",
			colorterm: "truecolor",
			term:      "xterm",
			expected:  ColorModeTrueColor,
		},
		{
			name:      "COLORTERM=24bit enables true color",
			colorterm: "24bit",
			expected:  ColorModeTrueColor,
		},
		{
			name:     "TERM with 256color enables 256 colors",
			term:     "screen-256color",
			expected: ColorMode256,
		},
		{
			name:     "TERM=dumb disables colors",
			term:     "dumb",
			expected: ColorModeNone,
		},
		{
			name:     "empty TERM disables colors",
			expected: ColorModeNone,
		},
		{
			name:     "TERM=xterm enables basic colors",
			term:     "xterm",
			expected: ColorModeBasic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			colorModeDetected = false
			defer func() { colorModeDetected = false }()

			setOrUnset(t, "NO_COLOR", tt.noColor)
			setOrUnset(t, "COLORTERM", tt.colorterm)
			setOrUnset(t, "TERM", tt.term)

			result := DetectColorMode()
			if result != tt.expected {
				t.Errorf("DetectColorMode() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func setOrUnset(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
	if value == "" {
		os.Unsetenv(key)
	}
}

func withColors(t *testing.T) {
	t.Helper()
	origColorless, origDisabled := Colorless, Disabled
	origGrey, origRed, origYellow := Grey, Red, Yellow
	t.Cleanup(func() {
		Colorless, Disabled = origColorless, origDisabled
		Grey, Red, Yellow = origGrey, origRed, origYellow
		colorModeDetected = false
	})
	Colorless, Disabled = false, false
	Grey, Red, Yellow = csi("90m"), csi("91m"), csi("93m")
}

func TestSeverityColor(t *testing.T) {
	withColors(t)

	tests := []struct {
		level    string
		expected string
	}{
		{"debug", Grey},
		{"warning", Yellow},
		{"warn", Yellow},
		{"error", Red},
		{"critical", csif("91;1m")},
		{"fatal", csif("91;1m")},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			result := SeverityColor(tt.level)
			if result != tt.expected {
				t.Errorf("SeverityColor(%q) = %q, want %q", tt.level, result, tt.expected)
			}
		})
	}

	Colorless = true
	if result := SeverityColor("error"); result != "" {
		t.Errorf("SeverityColor() in colorless mode should return empty string, got %q", result)
	}
}

func TestStatusColor(t *testing.T) {
	withColors(t)

	tests := []struct {
		status   string
		expected string
	}{
		{"running", Yellow},
		{"failed", Red},
		{"cancelled", Red},
		{"conflict", Red},
		{"whatever", ""},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			result := StatusColor(tt.status)
			if result != tt.expected {
				t.Errorf("StatusColor(%q) = %q, want %q", tt.status, result, tt.expected)
			}
		})
	}

	Disabled = true
	if result := StatusColor("running"); result != "" {
		t.Errorf("StatusColor() in disabled mode should return empty string, got %q", result)
	}
}

func TestColor256(t *testing.T) {
	withColors(t)
	colorModeDetected = true
	detectedColorMode = ColorMode256

	tests := []struct {
		name     string
		input    int
		expected string
	}{
		{"valid color 0", 0, csif("38;5;0m")},
		{"valid color 255", 255, csif("38;5;255m")},
		{"invalid negative", -1, ""},
		{"invalid too large", 256, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Color256(tt.input)
			if result != tt.expected {
				t.Errorf("Color256(%d) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}

	detectedColorMode = ColorModeBasic
	if result := Color256(100); result != "" {
		t.Errorf("Color256() in basic mode should return empty string, got %q", result)
	}
}

func TestScreenDrawUsesCRLF(t *testing.T) {
	var sink bytes.Buffer
	screen := NewScreen(&sink)
	if err := screen.Enter(); err != nil {
		t.Fatal(err)
	}
	if err := screen.Draw("one\ntwo"); err != nil {
		t.Fatal(err)
	}
	if err := screen.Leave(); err != nil {
		t.Fatal(err)
	}
	if err := screen.Leave(); err != nil {
		t.Fatal(err)
	}
	expected := EnterAltScreen() + HideCursor() + ClearScreen() + Home() +
		Home() + "one" + ClearLine() + "\r\n" + "two" + ClearLine() + ClearToEnd() +
		ShowCursor() + LeaveAltScreen()
	if sink.String() != expected {
		t.Errorf("unexpected screen output %q", sink.String())
	}
}
