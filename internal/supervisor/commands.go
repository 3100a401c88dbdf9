// Package supervisor implements the management-facing event loop: the
// single goroutine that owns daemon-wide state (target state, settings,
// account data) and reconciles it against tunnel state transitions
// reported by the tunnel state machine.
package supervisor

import (
	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

// CommandKind identifies a management-interface request.
type CommandKind int

const (
	CmdSetTargetState CommandKind = iota
	CmdGetState
	CmdGetCurrentLocation
	CmdGetAccountData
	CmdGetRelayLocations
	CmdSetAccount
	CmdUpdateRelaySettings
	CmdSetAllowLan
	CmdSetAutoConnect
	CmdSetOpenVpnMssfix
	CmdSetEnableIpv6
	CmdGetSettings
	CmdGetVersionInfo
	CmdGetCurrentVersion
	CmdShutdown
)

// Reply is sent back on a Command's ReplyTo channel exactly once. Only
// the field relevant to the originating command is populated; Err is
// set whenever the request could not be completed.
type Reply struct {
	Err error

	State           tunnel.Transition
	Location        *core.GeoIPLocation
	AccountData     *core.AccountData
	RelayList       *core.RelayList
	Settings        *core.Settings
	VersionInfo     *core.AppVersionInfo
	CurrentVersion  string
}

// Command is a single request from the management interface to the
// Supervisor, answered asynchronously over ReplyTo.
type Command struct {
	Kind CommandKind

	TargetState core.TargetState
	AccountToken *string
	RelaySettings core.RelaySettings
	AllowLan    bool
	AutoConnect bool
	OpenVpnMssfix *uint16
	EnableIpv6  bool

	ReplyTo chan<- Reply
}

func SetTargetState(state core.TargetState, reply chan<- Reply) Command {
	return Command{Kind: CmdSetTargetState, TargetState: state, ReplyTo: reply}
}

func GetState(reply chan<- Reply) Command {
	return Command{Kind: CmdGetState, ReplyTo: reply}
}

func GetCurrentLocation(reply chan<- Reply) Command {
	return Command{Kind: CmdGetCurrentLocation, ReplyTo: reply}
}

func GetAccountData(reply chan<- Reply) Command {
	return Command{Kind: CmdGetAccountData, ReplyTo: reply}
}

func GetRelayLocations(reply chan<- Reply) Command {
	return Command{Kind: CmdGetRelayLocations, ReplyTo: reply}
}

func SetAccount(token *string, reply chan<- Reply) Command {
	return Command{Kind: CmdSetAccount, AccountToken: token, ReplyTo: reply}
}

func UpdateRelaySettings(settings core.RelaySettings, reply chan<- Reply) Command {
	return Command{Kind: CmdUpdateRelaySettings, RelaySettings: settings, ReplyTo: reply}
}

func SetAllowLan(allow bool, reply chan<- Reply) Command {
	return Command{Kind: CmdSetAllowLan, AllowLan: allow, ReplyTo: reply}
}

func SetAutoConnect(auto bool, reply chan<- Reply) Command {
	return Command{Kind: CmdSetAutoConnect, AutoConnect: auto, ReplyTo: reply}
}

func SetOpenVpnMssfix(mssfix *uint16, reply chan<- Reply) Command {
	return Command{Kind: CmdSetOpenVpnMssfix, OpenVpnMssfix: mssfix, ReplyTo: reply}
}

func SetEnableIpv6(enable bool, reply chan<- Reply) Command {
	return Command{Kind: CmdSetEnableIpv6, EnableIpv6: enable, ReplyTo: reply}
}

func GetSettings(reply chan<- Reply) Command {
	return Command{Kind: CmdGetSettings, ReplyTo: reply}
}

func GetVersionInfo(reply chan<- Reply) Command {
	return Command{Kind: CmdGetVersionInfo, ReplyTo: reply}
}

func GetCurrentVersion(reply chan<- Reply) Command {
	return Command{Kind: CmdGetCurrentVersion, ReplyTo: reply}
}

func Shutdown(reply chan<- Reply) Command {
	return Command{Kind: CmdShutdown, ReplyTo: reply}
}
