package runner

import (
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/maxvaer/vanityprobe/internal/scanner"
)

// startStdinToggle puts the terminal in raw mode and toggles a pauser on
// Enter or Space. Ctrl+C restores the terminal and re-raises SIGINT. When
// stdin is not a terminal, or interactive mode is off, it returns a nil
// pauser and a no-op cleanup.
func startStdinToggle(disabled bool, log logrus.FieldLogger) (pauser *scanner.Pauser, cleanup func()) {
	fd := int(os.Stdin.Fd())
	if disabled || !term.IsTerminal(fd) {
		return nil, func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.WithError(err).Warn("could not enable raw terminal, pausing disabled")
		return nil, func() {}
	}
	fixOutputProcessing(fd)

	pauser = scanner.NewPauser()
	cleanup = func() {
		_ = term.Restore(fd, oldState)
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}

			switch buf[0] {
			case 0x03: // Ctrl+C
				_ = term.Restore(fd, oldState)
				sendInterrupt()
				return
			case '\r', '\n', ' ':
				if pauser.Toggle() {
					log.Info("probing PAUSED, press Enter or Space to resume")
				} else {
					log.Info("probing RESUMED")
				}
			}
		}
	}()

	return pauser, cleanup
}
