package pretty

import (
	"fmt"

	"github.com/joshyorko/swarmdash/common"
)

// Exit aborts the command with code and message. The panic is recovered
// in main, which flushes logs before exiting.
func Exit(code int, format string, rest ...interface{}) {
	panic(common.ExitCode{
		Code:    code,
		Message: fmt.Sprintf(format, rest...),
	})
}

// Guard exits with code and message unless condition holds.
func Guard(condition bool, code int, format string, rest ...interface{}) {
	if !condition {
		Exit(code, format, rest...)
	}
}
