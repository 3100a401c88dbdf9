package geoip

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ip":"1.2.3.4","country":"Sweden","city":"Stockholm","latitude":59.3,"longitude":18.0,"mullvad_exit_ip":true}`))
	}))
	defer srv.Close()

	l := New(srv.Client())
	l.url = srv.URL

	loc, err := l.Lookup(t.Context())
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", loc.IP.String())
	require.Equal(t, "Sweden", loc.Country)
	require.True(t, loc.ViaMvpnRelay)
}

func TestLookup_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := New(srv.Client())
	l.url = srv.URL

	_, err := l.Lookup(t.Context())
	require.Error(t, err)
}
