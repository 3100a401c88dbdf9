package core

// CustomTunnelEndpoint is a fully specified relay the user has pinned
// directly, bypassing constraint-based selection.
type CustomTunnelEndpoint struct {
	Host     string `yaml:"host"`
	Port     uint16 `yaml:"port"`
	Protocol string `yaml:"protocol"`
}

func (e *CustomTunnelEndpoint) equal(o *CustomTunnelEndpoint) bool {
	if e == nil || o == nil {
		return e == o
	}
	return *e == *o
}

// RelayConstraints filters the relay list by country/city/protocol/port.
// An empty field means "any".
type RelayConstraints struct {
	Country  string  `yaml:"country,omitempty"`
	City     string  `yaml:"city,omitempty"`
	Protocol string  `yaml:"protocol,omitempty"`
	Port     *uint16 `yaml:"port,omitempty"`
}

func (c *RelayConstraints) equal(o *RelayConstraints) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Country != o.Country || c.City != o.City || c.Protocol != o.Protocol {
		return false
	}
	return equalU16Ptr(c.Port, o.Port)
}

// RelaySettings is either a pinned custom endpoint or a filter over the
// relay list. Exactly one of Custom / Constraints should be non-nil; a
// zero value means "unconstrained" (match any relay).
type RelaySettings struct {
	Custom      *CustomTunnelEndpoint `yaml:"custom,omitempty"`
	Constraints *RelayConstraints     `yaml:"constraints,omitempty"`
}

// IsCustom reports whether the user pinned an explicit endpoint.
func (r RelaySettings) IsCustom() bool {
	return r.Custom != nil
}

func (r RelaySettings) equal(o RelaySettings) bool {
	return r.Custom.equal(o.Custom) && r.Constraints.equal(o.Constraints)
}

// Settings is the full persisted configuration. Every mutation is made
// exclusively through the setter methods below so the Supervisor can
// tell whether a durable write and any dependent effect are needed.
type Settings struct {
	AccountToken  *string       `yaml:"account_token,omitempty"`
	Relay         RelaySettings `yaml:"relay,omitempty"`
	AllowLan      bool          `yaml:"allow_lan"`
	AutoConnect   bool          `yaml:"auto_connect"`
	EnableIPv6    bool          `yaml:"enable_ipv6"`
	OpenVPNMssfix *uint16       `yaml:"openvpn_mssfix,omitempty"`
}

// Default returns the settings used when no settings file exists yet.
func Default() Settings {
	return Settings{}
}

// SetAccountToken replaces the account token. Returns true if the value changed.
func (s *Settings) SetAccountToken(token *string) bool {
	if equalStringPtr(s.AccountToken, token) {
		return false
	}
	s.AccountToken = token
	return true
}

// SetRelaySettings replaces the relay selection. Returns true if it changed.
func (s *Settings) SetRelaySettings(update RelaySettings) bool {
	if s.Relay.equal(update) {
		return false
	}
	s.Relay = update
	return true
}

// SetAllowLan toggles the allow-LAN flag. Returns true if it changed.
func (s *Settings) SetAllowLan(allow bool) bool {
	if s.AllowLan == allow {
		return false
	}
	s.AllowLan = allow
	return true
}

// SetAutoConnect toggles auto-connect. Returns true if it changed.
func (s *Settings) SetAutoConnect(auto bool) bool {
	if s.AutoConnect == auto {
		return false
	}
	s.AutoConnect = auto
	return true
}

// SetEnableIPv6 toggles IPv6 support. Returns true if it changed.
func (s *Settings) SetEnableIPv6(enable bool) bool {
	if s.EnableIPv6 == enable {
		return false
	}
	s.EnableIPv6 = enable
	return true
}

// SetOpenVPNMssfix sets the OpenVPN mssfix override. Returns true if it changed.
func (s *Settings) SetOpenVPNMssfix(mssfix *uint16) bool {
	if equalU16Ptr(s.OpenVPNMssfix, mssfix) {
		return false
	}
	s.OpenVPNMssfix = mssfix
	return true
}

// HasAccountToken reports whether an account token is currently set.
func (s *Settings) HasAccountToken() bool {
	return s.AccountToken != nil && *s.AccountToken != ""
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalU16Ptr(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
