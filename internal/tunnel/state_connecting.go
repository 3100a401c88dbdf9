package tunnel

import (
	"context"

	"mvpnd/internal/core"
)

// connecting: tunnel process spawned; firewall policy active (block
// non-tunnel traffic except LAN if allowed); awaiting handshake.
//
// Firewall policy must be installed before any other observable effect
// — this ordering is the crux of the no-leak invariant.
func (m *Machine) connecting(params Parameters) stepFunc {
	return func(ctx context.Context) stepFunc {
		mode := FirewallMode{Kind: FirewallBlockAllExceptTunnel, AllowLAN: params.AllowLAN}
		if err := m.firewall.Apply(mode); err != nil {
			core.Log.Errorf("Tunnel", "apply firewall policy for connecting: %v", err)
			return m.blocked(BlockReason{Kind: SetSecurityPolicyError}, params.AllowLAN)
		}

		handle, err := m.process.Spawn(ctx, params)
		if err != nil {
			core.Log.Errorf("Tunnel", "spawn tunnel process: %v", err)
			return m.blocked(BlockReason{Kind: StartTunnelError}, params.AllowLAN)
		}

		m.report(Transition{Kind: Connecting})

		for {
			select {
			case <-ctx.Done():
				handle.Close()
				return nil

			case servers := <-handle.Up():
				if err := m.dns.Set(servers); err != nil {
					core.Log.Warnf("Tunnel", "set DNS servers: %v", err)
				}
				return m.connected(params, handle)

			case result := <-handle.Exited():
				if result.Err == nil && !result.WasRequested {
					return m.disconnectedAfterExit()
				}
				core.Log.Warnf("Tunnel", "tunnel process exited while connecting: %v", result.Err)
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
					if err := m.firewall.Apply(FirewallMode{Kind: FirewallBlockAllExceptTunnel, AllowLAN: params.AllowLAN}); err != nil {
						core.Log.Warnf("Tunnel", "re-apply firewall policy for allow-lan change: %v", err)
					}
				}
			}
		}
	}
}

// disconnectedAfterExit handles the rare case where the tunnel process
// exited cleanly, unrequested, before ever reaching Connected — treated
// as a plain teardown rather than a connection failure.
func (m *Machine) disconnectedAfterExit() stepFunc {
	return func(ctx context.Context) stepFunc {
		return m.disconnected(ctx)
	}
}
