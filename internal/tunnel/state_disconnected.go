package tunnel

import (
	"context"

	"mvpnd/internal/core"
)

// disconnected: no tunnel, no firewall policy enforced.
func (m *Machine) disconnected(ctx context.Context) stepFunc {
	if err := m.firewall.Apply(FirewallMode{Kind: FirewallOff}); err != nil {
		core.Log.Warnf("Tunnel", "clear firewall policy: %v", err)
	}
	if err := m.dns.Reset(); err != nil {
		core.Log.Warnf("Tunnel", "reset DNS: %v", err)
	}
	m.report(Transition{Kind: Disconnected})

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-m.commands:
			switch cmd.Kind {
			case CmdConnect:
				return m.connecting(cmd.Params)
			case CmdDisconnect:
				// stay
			case CmdBlock:
				return m.blocked(cmd.Reason, cmd.AllowLAN)
			case CmdAllowLAN:
				// no active policy to update
			}
		}
	}
}
