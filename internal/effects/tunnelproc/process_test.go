package tunnelproc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mvpnd/internal/tunnel"
)

func TestParseReady(t *testing.T) {
	dns, ok := parseReady("READY 10.0.0.1,10.0.0.2")
	require.True(t, ok)
	require.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, dns)

	_, ok = parseReady("some other line")
	require.False(t, ok)
}

func TestParseReady_EmptyServerList(t *testing.T) {
	dns, ok := parseReady("READY ")
	require.True(t, ok)
	require.Empty(t, dns)
}

func TestBuildArgs_IncludesEndpointAndToken(t *testing.T) {
	params := tunnel.Parameters{
		Endpoint:   tunnel.Endpoint{Host: "1.2.3.4", Port: 51820, Protocol: "wireguard"},
		Credential: "account-token",
	}
	args := buildArgs(params)
	require.Contains(t, args, "--endpoint")
	require.Contains(t, args, "--token")
	require.Contains(t, args, "account-token")
}
