package dns

import (
	"fmt"

	"github.com/miekg/dns"

	"mvpnd/internal/tunnel"
)

// validatingManager rejects malformed server addresses before they ever
// reach a platform backend, so a bad entry never makes it into the
// on-disk backup or the live resolver configuration.
type validatingManager struct {
	tunnel.DnsManager
}

func (m validatingManager) Set(servers []string) error {
	for _, s := range servers {
		if _, err := dns.ReverseAddr(s); err != nil {
			return fmt.Errorf("dns: invalid server address %q: %w", s, err)
		}
	}
	return m.DnsManager.Set(servers)
}
