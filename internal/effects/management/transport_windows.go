//go:build windows

package management

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// PipeName is the Named Pipe path management clients connect to.
const PipeName = `\\.\pipe\mvpnd`

func listen() (net.Listener, error) {
	cfg := &winio.PipeConfig{
		// Grant access to any authenticated user — a GUI frontend typically
		// runs unprivileged while the daemon runs elevated.
		SecurityDescriptor: "D:P(A;;GA;;;AU)",
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}
	return winio.ListenPipe(PipeName, cfg)
}

func dial(timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(PipeName, &timeout)
}

func dialTarget() string { return "passthrough:///" + PipeName }
