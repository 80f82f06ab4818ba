package common

import "sync/atomic"

const (
	Product = `swarmdash`

	// EnvPrefix namespaces environment overrides, e.g. SWARMDASH_HZ=4.
	EnvPrefix = `SWARMDASH`
)

var (
	Version = `v0.3.1`

	// LogLinenumbers prefixes every log line with a running counter.
	LogLinenumbers bool

	// LogHides lists fragments; messages containing any of them are dropped.
	LogHides []string

	verbosity atomic.Int32
)

// Verbosity selects how chatty the logger is.
type Verbosity int32

const (
	Quiet Verbosity = iota - 1
	Normal
	Debugging
	Tracing
)

func (v Verbosity) String() string {
	switch v {
	case Quiet:
		return "silent"
	case Debugging:
		return "debug"
	case Tracing:
		return "trace"
	default:
		return "normal"
	}
}

// DefineVerbosity picks the most verbose of the requested levels.
func DefineVerbosity(silent, debug, trace bool) {
	override := Normal
	switch {
	case trace:
		override = Tracing
	case debug:
		override = Debugging
	case silent:
		override = Quiet
	}
	verbosity.Store(int32(override))
}

func CurrentVerbosity() Verbosity {
	return Verbosity(verbosity.Load())
}

func Silent() bool {
	return CurrentVerbosity() == Quiet
}

func DebugFlag() bool {
	return CurrentVerbosity() >= Debugging
}

func TraceFlag() bool {
	return CurrentVerbosity() >= Tracing
}
