package tunnel

import "context"

// ExitResult is delivered on a ProcessHandle's Exited channel exactly
// once, whether the process died spontaneously or in response to Close.
type ExitResult struct {
	// Err is non-nil when the process could not be started or exited
	// abnormally; a nil Err with WasRequested false means a clean,
	// unrequested exit. While Connecting such an exit leads to
	// Disconnected and an error exit to Blocked; while Connected any exit
	// leads to Blocked (see state_connecting.go / state_connected.go).
	Err error
	// WasRequested is true if Close() was called before the process exited.
	WasRequested bool
}

// ProcessHandle represents one live (or spawning) tunnel process.
type ProcessHandle interface {
	// Up delivers exactly one value, the tunnel's assigned DNS servers,
	// when the handshake completes and the tunnel is ready to carry
	// traffic. Never fires if the process exits first.
	Up() <-chan []string
	// Exited is closed exactly once with the process's outcome.
	Exited() <-chan ExitResult
	// Close requests tunnel shutdown. Idempotent and safe to call
	// concurrently with a spontaneous exit.
	Close()
}

// TunnelProcess spawns and supervises the external tunnel process. The
// core never speaks the tunnel protocol itself; this is the seam where a
// concrete OpenVPN/WireGuard driver plugs in.
type TunnelProcess interface {
	Spawn(ctx context.Context, params Parameters) (ProcessHandle, error)
}

// FirewallModeKind selects the firewall posture to enforce.
type FirewallModeKind int

const (
	// FirewallOff tears down any previously applied policy.
	FirewallOff FirewallModeKind = iota
	// FirewallBlockAllExceptTunnel allows tunnel traffic and, optionally,
	// LAN traffic; everything else is dropped. Used while Connecting/Connected.
	FirewallBlockAllExceptTunnel
	// FirewallBlockAll allows only LAN traffic (if enabled); everything
	// else, including any tunnel, is dropped. Used while Blocked.
	FirewallBlockAll
)

// FirewallMode is the policy to install.
type FirewallMode struct {
	Kind     FirewallModeKind
	AllowLAN bool
}

// FirewallPolicy applies network blocking. Apply must be synchronous and
// failure-reported: a failure applying FirewallBlockAllExceptTunnel on
// entering Connecting, or FirewallBlockAll while Blocked, produces a
// Blocked(SetSecurityPolicyError) transition (see state_connecting.go and
// state_blocked.go).
type FirewallPolicy interface {
	Apply(mode FirewallMode) error
}

// DnsManager configures DNS resolution while the tunnel is up and
// restores it on teardown. Failure is logged, never fatal.
type DnsManager interface {
	Set(servers []string) error
	Reset() error
}
