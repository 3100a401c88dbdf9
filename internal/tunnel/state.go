package tunnel

import "fmt"

// StateKind identifies which of the five tunnel states a Transition
// reports. The associated data each state carries is described in the
// Transition struct fields below — only the fields relevant to Kind are set.
type StateKind int

const (
	Disconnected StateKind = iota
	Connecting
	Connected
	Disconnecting
	Blocked
)

func (k StateKind) String() string {
	switch k {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ActionAfterDisconnect records what the state machine will do once the
// tunnel process currently being torn down has confirmed exit.
type ActionAfterDisconnect int

const (
	ActionNothing ActionAfterDisconnect = iota
	ActionBlock
	ActionReconnect
)

func (a ActionAfterDisconnect) String() string {
	switch a {
	case ActionNothing:
		return "nothing"
	case ActionBlock:
		return "block"
	case ActionReconnect:
		return "reconnect"
	default:
		return "unknown"
	}
}

// BlockReasonKind enumerates why the state machine entered Blocked.
type BlockReasonKind int

const (
	AuthFailed BlockReasonKind = iota
	Ipv6Unavailable
	SetSecurityPolicyError
	StartTunnelError
	NoMatchingRelay
)

func (r BlockReasonKind) String() string {
	switch r {
	case AuthFailed:
		return "auth_failed"
	case Ipv6Unavailable:
		return "ipv6_unavailable"
	case SetSecurityPolicyError:
		return "set_security_policy_error"
	case StartTunnelError:
		return "start_tunnel_error"
	case NoMatchingRelay:
		return "no_matching_relay"
	default:
		return "unknown"
	}
}

// BlockReason is the reason payload attached to a Blocked transition.
type BlockReason struct {
	Kind BlockReasonKind
	// Message carries the optional server-provided failure string for
	// AuthFailed, or a free-form detail for other kinds. String() includes
	// it only for AuthFailed.
	Message string
}

func (r BlockReason) String() string {
	if r.Kind == AuthFailed && r.Message != "" {
		return fmt.Sprintf("authentication failed: %s", r.Message)
	}
	return r.Kind.String()
}

// Transition is the value reported to the Supervisor (and, from there,
// to management-interface subscribers) every time the state machine
// enters a new state. Only the fields relevant to Kind are populated;
// the zero value of every other field is meaningless.
type Transition struct {
	Kind StateKind

	// Disconnecting
	After ActionAfterDisconnect

	// Blocked (AllowLAN is also set on Connected)
	Reason   BlockReason
	AllowLAN bool

	// Connected
	Endpoint Endpoint
}

func (t Transition) String() string {
	switch t.Kind {
	case Disconnecting:
		return fmt.Sprintf("disconnecting(%s)", t.After)
	case Blocked:
		return fmt.Sprintf("blocked(%s)", t.Reason)
	case Connected:
		return fmt.Sprintf("connected(%s:%d)", t.Endpoint.Host, t.Endpoint.Port)
	default:
		return t.Kind.String()
	}
}

// IsBlocked reports whether the transition is a Blocked state, mirroring
// talpid's TunnelStateTransition::is_blocked.
func (t Transition) IsBlocked() bool {
	return t.Kind == Blocked
}

// IsDisconnected reports whether the transition is the fully torn down state.
func (t Transition) IsDisconnected() bool {
	return t.Kind == Disconnected
}
