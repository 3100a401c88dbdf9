// Package geoip implements supervisor.GeoIPLookup by querying an HTTP
// location-lookup service with the current egress address.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"mvpnd/internal/core"
)

// DefaultURL is the location service used when none is configured. It
// is dialed either directly (reporting the host's own address) or
// through the active tunnel (reporting the relay's apparent address),
// depending on which interface the caller's http.Client is bound to.
const DefaultURL = "https://am.i.mullvad.net/json"

type response struct {
	IP        string  `json:"ip"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	MullvadExitIP bool `json:"mullvad_exit_ip"`
}

// Lookup queries DefaultURL using the given HTTP client, which the
// caller configures to dial either directly or via the tunnel
// interface depending on whether a relay-relative or direct location
// is wanted.
type Lookup struct {
	url        string
	httpClient *http.Client
}

// New creates a Lookup. Pass a client bound to the tunnel interface to
// report the relay's apparent location, or http.DefaultClient for the
// host's direct location.
func New(httpClient *http.Client) *Lookup {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Lookup{url: DefaultURL, httpClient: httpClient}
}

// Lookup implements supervisor.GeoIPLookup.
func (l *Lookup) Lookup(ctx context.Context) (core.GeoIPLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return core.GeoIPLocation{}, fmt.Errorf("geoip: build request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return core.GeoIPLocation{}, fmt.Errorf("geoip: fetch location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.GeoIPLocation{}, fmt.Errorf("geoip: location service returned %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return core.GeoIPLocation{}, fmt.Errorf("geoip: decode response: %w", err)
	}

	return core.GeoIPLocation{
		IP:           net.ParseIP(body.IP),
		Country:      body.Country,
		City:         body.City,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		ViaMvpnRelay: body.MullvadExitIP,
	}, nil
}
