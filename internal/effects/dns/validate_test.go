package dns

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mvpnd/internal/tunnel"
)

type recordingManager struct {
	setServers []string
}

func (m *recordingManager) Set(servers []string) error {
	m.setServers = servers
	return nil
}
func (m *recordingManager) Reset() error { return nil }

func TestValidatingManager_RejectsMalformedAddress(t *testing.T) {
	var inner tunnel.DnsManager = &recordingManager{}
	m := validatingManager{DnsManager: inner}
	err := m.Set([]string{"not-an-ip"})
	require.Error(t, err)
}

func TestValidatingManager_PassesValidAddresses(t *testing.T) {
	rec := &recordingManager{}
	m := validatingManager{DnsManager: rec}
	require.NoError(t, m.Set([]string{"10.0.0.1", "2001:4860:4860::8888"}))
	require.Equal(t, []string{"10.0.0.1", "2001:4860:4860::8888"}, rec.setServers)
}
