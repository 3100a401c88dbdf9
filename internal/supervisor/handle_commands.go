package supervisor

import (
	"context"
	"time"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

// lookupTimeout bounds the goroutines spawned for commands that call out
// to the network (geoip, account server, version check) so a slow or
// unreachable server can't leak a goroutine indefinitely.
const lookupTimeout = 10 * time.Second

// onCommand answers a single management-interface Command. Pure reads
// that require a network round trip (GetCurrentLocation, GetAccountData,
// GetVersionInfo) are answered from a spawned goroutine so they never
// block the event loop; everything that touches Supervisor-owned state
// is answered inline.
func (s *Supervisor) onCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSetTargetState:
		if !s.execState.IsRunning() {
			// Shutdown already in progress: the target state no longer
			// matters, and re-triggering a connect/disconnect here would
			// race the teardown already under way.
			reply(cmd.ReplyTo, Reply{})
			return
		}
		s.targetState = cmd.TargetState
		switch s.targetState {
		case core.Secured:
			s.attemptConnect()
		case core.Unsecured:
			s.tunnelCmds <- tunnel.Disconnect()
		}
		reply(cmd.ReplyTo, Reply{})

	case CmdGetState:
		reply(cmd.ReplyTo, Reply{State: s.lastTransition})

	case CmdGetCurrentLocation:
		if s.lastTransition.Kind == tunnel.Connected {
			if loc, ok := s.relay.Locate(s.lastTransition.Endpoint.Host); ok {
				reply(cmd.ReplyTo, Reply{Location: &loc})
				return
			}
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			defer cancel()
			loc, err := s.geoip.Lookup(ctx)
			reply(cmd.ReplyTo, Reply{Location: &loc, Err: err})
		}()

	case CmdGetAccountData:
		token := ""
		if s.settings.AccountToken != nil {
			token = *s.settings.AccountToken
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			defer cancel()
			data, err := s.account.GetAccountData(ctx, token)
			reply(cmd.ReplyTo, Reply{AccountData: &data, Err: err})
		}()

	case CmdGetRelayLocations:
		list := s.relay.List()
		reply(cmd.ReplyTo, Reply{RelayList: &list})

	case CmdSetAccount:
		prev := s.settings
		wasSecured := s.settings.HasAccountToken()
		changed := s.settings.SetAccountToken(cmd.AccountToken)
		if cmd.AccountToken != nil {
			if err := s.history.Append(*cmd.AccountToken); err != nil {
				core.Log.Warnf("Supervisor", "append account history: %v", err)
			}
		}
		saved := s.persist(prev)
		if saved && cmd.AccountToken == nil && wasSecured {
			// Logging out always drops the tunnel, regardless of target state.
			s.targetState = core.Unsecured
			s.tunnelCmds <- tunnel.Disconnect()
		}
		if saved && changed && cmd.AccountToken != nil && s.targetState == core.Secured && !s.lastTransition.IsDisconnected() {
			s.attemptConnect()
		}
		reply(cmd.ReplyTo, Reply{})

	case CmdUpdateRelaySettings:
		prev := s.settings
		changed := s.settings.SetRelaySettings(cmd.RelaySettings)
		saved := s.persist(prev)
		if saved && changed && s.targetState == core.Secured && !s.lastTransition.IsDisconnected() {
			s.attemptConnect()
		}
		reply(cmd.ReplyTo, Reply{})

	case CmdSetAllowLan:
		prev := s.settings
		if s.settings.SetAllowLan(cmd.AllowLan) && s.persist(prev) {
			s.tunnelCmds <- tunnel.AllowLAN(cmd.AllowLan)
		}
		reply(cmd.ReplyTo, Reply{})

	case CmdSetAutoConnect:
		prev := s.settings
		if s.settings.SetAutoConnect(cmd.AutoConnect) {
			s.persist(prev)
		}
		reply(cmd.ReplyTo, Reply{})

	case CmdSetOpenVpnMssfix:
		prev := s.settings
		if s.settings.SetOpenVPNMssfix(cmd.OpenVpnMssfix) {
			s.persist(prev)
		}
		reply(cmd.ReplyTo, Reply{})

	case CmdSetEnableIpv6:
		prev := s.settings
		if s.settings.SetEnableIPv6(cmd.EnableIpv6) {
			s.persist(prev)
		}
		reply(cmd.ReplyTo, Reply{})

	case CmdGetSettings:
		settings := s.settings
		reply(cmd.ReplyTo, Reply{Settings: &settings})

	case CmdGetVersionInfo:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
			defer cancel()
			info, err := s.versionInfo.Latest(ctx)
			reply(cmd.ReplyTo, Reply{VersionInfo: &info, Err: err})
		}()

	case CmdGetCurrentVersion:
		reply(cmd.ReplyTo, Reply{CurrentVersion: s.versionInfo.Current()})

	case CmdShutdown:
		reply(cmd.ReplyTo, Reply{})
		s.beginShutdown()
	}
}

func reply(to chan<- Reply, r Reply) {
	if to == nil {
		return
	}
	to <- r
}
