// Package firewall implements the tunnel.FirewallPolicy effect per
// platform: the network-blocking posture that enforces the daemon's
// no-leak invariant while Connecting, Connected, or Blocked.
package firewall

import "mvpnd/internal/tunnel"

// New returns the platform-appropriate FirewallPolicy implementation.
func New() tunnel.FirewallPolicy {
	return newPlatform()
}
