package accounthistory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistory_AppendThenTokensRoundTrips(t *testing.T) {
	h := New(t.TempDir())
	require.NoError(t, h.Append("token-a"))
	require.NoError(t, h.Append("token-b"))

	tokens, err := h.Tokens()
	require.NoError(t, err)
	require.Equal(t, []string{"token-a", "token-b"}, tokens)
}

func TestHistory_AppendSameTokenTwiceIsNoop(t *testing.T) {
	h := New(t.TempDir())
	require.NoError(t, h.Append("token-a"))
	require.NoError(t, h.Append("token-a"))

	tokens, err := h.Tokens()
	require.NoError(t, err)
	require.Equal(t, []string{"token-a"}, tokens)
}

func TestHistory_ClearRemovesAllTokens(t *testing.T) {
	h := New(t.TempDir())
	require.NoError(t, h.Append("token-a"))
	require.NoError(t, h.Clear())

	tokens, err := h.Tokens()
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestHistory_TokensOnMissingFileReturnsEmpty(t *testing.T) {
	h := New(t.TempDir())
	tokens, err := h.Tokens()
	require.NoError(t, err)
	require.Empty(t, tokens)
}
