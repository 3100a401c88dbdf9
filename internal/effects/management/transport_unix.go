//go:build !windows

package management

import (
	"fmt"
	"net"
	"os"
	"time"

	"mvpnd/internal/core"
)

// SocketPath is the Unix domain socket management clients connect to.
const SocketPath = "/var/run/mvpnd.sock"

func listen() (net.Listener, error) {
	if ln, ok := tryInheritSocket(); ok {
		core.Log.Infof("Management", "inherited management socket from service manager")
		return ln, nil
	}

	_ = os.Remove(SocketPath)
	ln, err := net.Listen("unix", SocketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(SocketPath, 0600); err != nil {
		core.Log.Warnf("Management", "chmod socket: %v", err)
	}
	return ln, nil
}

func dial(timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", SocketPath, timeout)
}

func dialTarget() string { return "passthrough:///" + SocketPath }
