package management

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mvpnd/internal/tunnel"
)

func TestJSONCodec_RoundTrips(t *testing.T) {
	c := jsonCodec{}
	req := &SetTargetStateRequest{TargetState: "secured"}

	data, err := c.Marshal(req)
	require.NoError(t, err)
	require.Contains(t, string(data), `"target_state":"secured"`)

	var got SetTargetStateRequest
	require.NoError(t, c.Unmarshal(data, &got))
	require.Equal(t, *req, got)
}

func TestTransitionToWire(t *testing.T) {
	tr := tunnel.Transition{
		Kind:     tunnel.Blocked,
		Reason:   tunnel.BlockReason{Kind: tunnel.AuthFailed, Message: "bad token"},
		AllowLAN: true,
	}
	wire := transitionToWire(tr)
	require.Equal(t, "blocked", wire.State)
	require.Equal(t, "auth_failed", wire.Reason.Kind)
	require.Equal(t, "bad token", wire.Reason.Message)
	require.True(t, wire.AllowLan)
}
