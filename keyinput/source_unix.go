//go:build unix

package keyinput

import (
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

type fdSource struct {
	fd int
}

// NewSource reads single bytes from file, waiting with poll(2).
func NewSource(file *os.File) Source {
	return &fdSource{fd: int(file.Fd())}
}

func (it *fdSource) Next(timeout time.Duration) (byte, bool, error) {
	fds := []unix.PollFd{{Fd: int32(it.fd), Events: unix.POLLIN}}
	ready, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if errors.Is(err, unix.EINTR) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if ready == 0 {
		return 0, false, nil
	}

	var buffer [1]byte
	count, err := unix.Read(it.fd, buffer[:])
	if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if count == 0 {
		return 0, false, io.EOF
	}
	return buffer[0], true, nil
}
