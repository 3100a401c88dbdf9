package accountclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClient_GetAccountData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer my-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"expires_at":"2030-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := New()
	c.url = srv.URL

	data, err := c.GetAccountData(t.Context(), "my-token")
	require.NoError(t, err)
	require.Equal(t, "2030-01-01T00:00:00Z", data.ExpiresAt)
}

func TestClient_UnauthorizedIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New()
	c.url = srv.URL

	_, err := c.GetAccountData(t.Context(), "bad-token")
	require.Error(t, err)
}
