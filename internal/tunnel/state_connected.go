package tunnel

import (
	"context"

	"mvpnd/internal/core"
)

// connected: tunnel process up and passing traffic; firewall policy from
// Connecting stays in force, re-applied only when the allow-LAN flag
// changes.
func (m *Machine) connected(params Parameters, handle ProcessHandle) stepFunc {
	return func(ctx context.Context) stepFunc {
		m.report(Transition{Kind: Connected, Endpoint: params.Endpoint, AllowLAN: params.AllowLAN})

		for {
			select {
			case <-ctx.Done():
				handle.Close()
				return nil

			case result := <-handle.Exited():
				// The tunnel cannot come down from under us while staying
				// Connected without risking a leak window, so any exit seen
				// here — requested or not, since Connected never calls
				// Close() itself — heads straight to Blocked rather than
				// back through Disconnecting.
				core.Log.Warnf("Tunnel", "tunnel process exited while connected: %v", result.Err)
				return m.blocked(BlockReason{Kind: StartTunnelError}, params.AllowLAN)

			case cmd := <-m.commands:
				switch cmd.Kind {
				case CmdConnect:
					handle.Close()
					return m.disconnecting(afterReconnect(cmd.Params), handle)
				case CmdDisconnect:
					handle.Close()
					return m.disconnecting(afterNothing(), handle)
				case CmdBlock:
					handle.Close()
					return m.disconnecting(afterBlock(cmd.Reason, cmd.AllowLAN), handle)
				case CmdAllowLAN:
					params.AllowLAN = cmd.AllowLAN
					mode := FirewallMode{Kind: FirewallBlockAllExceptTunnel, AllowLAN: params.AllowLAN}
					if err := m.firewall.Apply(mode); err != nil {
						core.Log.Warnf("Tunnel", "re-apply firewall policy for allow-lan change: %v", err)
					}
				}
			}
		}
	}
}
