package common

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (it *lockedBuffer) Write(p []byte) (int, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.buf.Write(p)
}

func (it *lockedBuffer) String() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.buf.String()
}

func TestDefineVerbosity(t *testing.T) {
	defer DefineVerbosity(false, false, false)

	tests := []struct {
		name                 string
		silent, debug, trace bool
		expected             Verbosity
	}{
		{"normal", false, false, false, Normal},
		{"silent", true, false, false, Quiet},
		{"debug", false, true, false, Debugging},
		{"trace wins over debug", false, true, true, Tracing},
		{"debug wins over silent", true, true, false, Debugging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			DefineVerbosity(tt.silent, tt.debug, tt.trace)
			if got := CurrentVerbosity(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTraceImpliesDebug(t *testing.T) {
	defer DefineVerbosity(false, false, false)

	DefineVerbosity(false, false, true)
	if !DebugFlag() || !TraceFlag() {
		t.Error("trace verbosity should enable both debug and trace output")
	}
	if Silent() {
		t.Error("trace verbosity should not be silent")
	}
}

func TestRedirectLogsCapturesMessages(t *testing.T) {
	defer ClearLogInterceptor()

	sink := &lockedBuffer{}
	RedirectLogs(sink)
	Log("ingested %d events", 3)
	WaitLogs()

	if !strings.Contains(sink.String(), "ingested 3 events") {
		t.Errorf("expected message in sink, got %q", sink.String())
	}
}

func TestAcceptableOutputHonorsHides(t *testing.T) {
	old := LogHides
	defer func() { LogHides = old }()

	LogHides = []string{"secret"}
	if AcceptableOutput("a secret value") {
		t.Error("message containing hidden fragment should be rejected")
	}
	if !AcceptableOutput("plain value") {
		t.Error("plain message should be accepted")
	}
}

func TestExitCodeError(t *testing.T) {
	err := ExitCode{Code: 3, Message: "no terminal"}
	if err.Error() != "exit 3: no terminal" {
		t.Errorf("unexpected error text %q", err.Error())
	}
}
