package tunnel

import (
	"context"

	"mvpnd/internal/core"
)

// blocked: no tunnel process, all non-LAN traffic dropped. Entered on
// failure (SetSecurityPolicyError, StartTunnelError, ...) or by explicit
// request (e.g. AuthFailed before the auto-reconnect timer fires).
func (m *Machine) blocked(reason BlockReason, allowLAN bool) stepFunc {
	return func(ctx context.Context) stepFunc {
		if err := m.applyBlockAll(allowLAN); err != nil {
			reason = BlockReason{Kind: SetSecurityPolicyError}
		}
		m.report(Transition{Kind: Blocked, Reason: reason, AllowLAN: allowLAN})

		for {
			select {
			case <-ctx.Done():
				return nil
			case cmd := <-m.commands:
				switch cmd.Kind {
				case CmdConnect:
					return m.connecting(cmd.Params)
				case CmdDisconnect:
					return m.disconnected
				case CmdBlock:
					reason, allowLAN = cmd.Reason, cmd.AllowLAN
					if err := m.applyBlockAll(allowLAN); err != nil {
						reason = BlockReason{Kind: SetSecurityPolicyError}
					}
					m.report(Transition{Kind: Blocked, Reason: reason, AllowLAN: allowLAN})
				case CmdAllowLAN:
					allowLAN = cmd.AllowLAN
					if err := m.applyBlockAll(allowLAN); err != nil {
						reason = BlockReason{Kind: SetSecurityPolicyError}
						m.report(Transition{Kind: Blocked, Reason: reason, AllowLAN: allowLAN})
					}
				}
			}
		}
	}
}

// applyBlockAll installs the block-all firewall policy, retrying once on
// failure. It returns the retry's error when both attempts fail, and the
// caller then reports Blocked(SetSecurityPolicyError).
func (m *Machine) applyBlockAll(allowLAN bool) error {
	mode := FirewallMode{Kind: FirewallBlockAll, AllowLAN: allowLAN}
	if err := m.firewall.Apply(mode); err != nil {
		core.Log.Errorf("Tunnel", "apply block-all firewall policy: %v, retrying", err)
		if err := m.firewall.Apply(mode); err != nil {
			core.Log.Errorf("Tunnel", "retry apply block-all firewall policy: %v, giving up", err)
			return err
		}
	}
	return nil
}
