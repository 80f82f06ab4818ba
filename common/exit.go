package common

import (
	"fmt"
	"os"
)

// ExitCode is panicked by pretty.Exit and recovered in main, so deferred
// cleanup (terminal restore, subprocess kill) runs before the process ends.
type ExitCode struct {
	Code    int
	Message string
}

func (it ExitCode) Error() string {
	return fmt.Sprintf("exit %d: %s", it.Code, it.Message)
}

// ShowMessage prints the exit message on stderr, bypassing any interceptor.
func (it ExitCode) ShowMessage() {
	if len(it.Message) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, it.Message)
}
