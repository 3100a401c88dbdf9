//go:build !windows && !darwin

package management

import "net"

// tryInheritSocket is only meaningful under launchd; every other
// supported platform always creates its own SocketPath.
func tryInheritSocket() (net.Listener, bool) {
	return nil, false
}
