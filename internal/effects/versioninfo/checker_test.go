package versioninfo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	require.True(t, isNewer("1.2.0", "1.1.9"))
	require.False(t, isNewer("1.1.9", "1.2.0"))
	require.False(t, isNewer("1.2.0", "1.2.0"))
}

func TestNormalizeVersion(t *testing.T) {
	require.Equal(t, "1.2.3", normalizeVersion("v1.2.3"))
	require.Equal(t, "1.2.3", normalizeVersion("1.2.3"))
}

func TestLatest_DevSkipsNetwork(t *testing.T) {
	p := New("dev")
	info, err := p.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, info.CurrentIsSupported)
}
