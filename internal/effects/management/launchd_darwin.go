//go:build darwin

package management

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// tryInheritSocket retrieves a listening socket passed down by launchd's
// socket-activation mechanism (a Sockets entry in the daemon's plist),
// so the daemon never has to race a client to create SocketPath itself.
func tryInheritSocket() (net.Listener, bool) {
	if fdsStr := os.Getenv("LAUNCHD_SOCKET_FDS"); fdsStr != "" {
		if parts := strings.Split(fdsStr, ":"); len(parts) > 0 {
			if fd, err := strconv.Atoi(parts[0]); err == nil {
				if ln, err := listenerFromFD(fd); err == nil {
					return ln, true
				}
			}
		}
	}

	// launchd passes the socket as fd 3 when a single Sockets entry is
	// configured and no LAUNCHD_SOCKET_FDS override is set.
	const launchdFD = 3
	if isSocket(launchdFD) {
		if ln, err := listenerFromFD(launchdFD); err == nil {
			return ln, true
		}
	}
	return nil, false
}

func isSocket(fd int) bool {
	var stat syscall.Stat_t
	if err := syscall.Fstat(fd, &stat); err != nil {
		return false
	}
	return stat.Mode&syscall.S_IFMT == syscall.S_IFSOCK
}

func listenerFromFD(fd int) (net.Listener, error) {
	syscall.CloseOnExec(fd)
	f := os.NewFile(uintptr(fd), "launchd-socket")
	if f == nil {
		return nil, fmt.Errorf("invalid fd %d", fd)
	}
	ln, err := net.FileListener(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("fd %d -> listener: %w", fd, err)
	}
	return ln, nil
}
