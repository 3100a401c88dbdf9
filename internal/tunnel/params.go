package tunnel

// Endpoint is a concrete relay address the tunnel connects to.
type Endpoint struct {
	Host     string
	Port     uint16
	Protocol string
}

// Options carries protocol-tunable knobs that affect how the tunnel
// process is launched but never influence which relay is picked.
type Options struct {
	EnableIPv6    bool
	OpenVPNMssfix *uint16
}

// Parameters is built fresh every time a connection is initiated. It is
// never mutated in place — a new Parameters value replaces the old one
// whenever the Supervisor decides to reconnect.
type Parameters struct {
	Endpoint    Endpoint
	Options     Options
	LogDir      string
	ResourceDir string
	Credential  string // account token
	AllowLAN    bool
	// AttemptID tags one connection attempt for log correlation across
	// the Supervisor, the state machine, and the spawned process; it
	// never affects tunnel behavior.
	AttemptID string
}

// WithAllowLAN returns a copy of p with AllowLAN replaced. Used by the
// Disconnecting queued-intent protocol to patch a pending Reconnect
// without rebuilding the whole parameter set.
func (p Parameters) WithAllowLAN(allow bool) Parameters {
	p.AllowLAN = allow
	return p
}
