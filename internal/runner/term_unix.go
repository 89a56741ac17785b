//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package runner

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// fixOutputProcessing re-enables OPOST after term.MakeRaw so "\n" is still
// translated to "\r\n" and log lines stay aligned with the progress line.
func fixOutputProcessing(fd int) {
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return
	}
	t.Oflag |= unix.OPOST
	_ = unix.IoctlSetTermios(fd, ioctlSetTermios, t)
}

func sendInterrupt() {
	_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
}
