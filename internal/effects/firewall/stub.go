//go:build !linux && !windows && !darwin

package firewall

import "mvpnd/internal/tunnel"

type stubFirewall struct{}

func newPlatform() tunnel.FirewallPolicy {
	return &stubFirewall{}
}

func (stubFirewall) Apply(tunnel.FirewallMode) error {
	return nil
}
