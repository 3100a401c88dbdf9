package relay

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"mvpnd/internal/core"
)

func testServer(t *testing.T, list core.RelayList) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(list))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sampleList() core.RelayList {
	return core.RelayList{
		Countries: []core.RelayListCountry{
			{
				Code: "se",
				Name: "Sweden",
				Cities: []core.RelayListCity{
					{
						Code: "sto",
						Name: "Stockholm",
						Relays: []core.Relay{
							{Hostname: "se1-wireguard", IPv4Addr: net.ParseIP("1.2.3.4"), Country: "se", City: "sto"},
						},
					},
				},
			},
			{
				Code: "us",
				Name: "USA",
				Cities: []core.RelayListCity{
					{
						Code: "nyc",
						Name: "New York",
						Relays: []core.Relay{
							{Hostname: "us1-wireguard", IPv4Addr: net.ParseIP("5.6.7.8"), Country: "us", City: "nyc"},
						},
					},
				},
			},
		},
	}
}

func TestSelector_RefreshThenSelectUnconstrained(t *testing.T) {
	srv := testServer(t, sampleList())
	sel := New(srv.URL)
	require.NoError(t, sel.Refresh(t.Context()))

	ep, err := sel.Select(core.RelaySettings{})
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", ep.Host)
}

func TestSelector_SelectRespectsCountryConstraint(t *testing.T) {
	srv := testServer(t, sampleList())
	sel := New(srv.URL)
	require.NoError(t, sel.Refresh(t.Context()))

	ep, err := sel.Select(core.RelaySettings{Constraints: &core.RelayConstraints{Country: "us"}})
	require.NoError(t, err)
	require.Equal(t, "5.6.7.8", ep.Host)
}

func TestSelector_SelectNoMatchReturnsErrNoMatchingRelay(t *testing.T) {
	srv := testServer(t, sampleList())
	sel := New(srv.URL)
	require.NoError(t, sel.Refresh(t.Context()))

	_, err := sel.Select(core.RelaySettings{Constraints: &core.RelayConstraints{Country: "jp"}})
	require.ErrorIs(t, err, ErrNoMatchingRelay)
}

func TestSelector_SelectBeforeRefreshFails(t *testing.T) {
	sel := New("http://unused.invalid")
	_, err := sel.Select(core.RelaySettings{})
	require.ErrorIs(t, err, ErrNoMatchingRelay)
}

func TestSelector_LocateFindsCachedRelayByAddress(t *testing.T) {
	srv := testServer(t, sampleList())
	sel := New(srv.URL)
	require.NoError(t, sel.Refresh(t.Context()))

	loc, ok := sel.Locate("5.6.7.8")
	require.True(t, ok)
	require.Equal(t, "us", loc.Country)
	require.True(t, loc.ViaMvpnRelay)
}

func TestSelector_LocateMissesUnknownAddress(t *testing.T) {
	srv := testServer(t, sampleList())
	sel := New(srv.URL)
	require.NoError(t, sel.Refresh(t.Context()))

	_, ok := sel.Locate("9.9.9.9")
	require.False(t, ok)
}
