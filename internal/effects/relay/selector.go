// Package relay implements supervisor.RelaySelector: matching a user's
// RelaySettings constraints against a periodically refreshed relay
// list, fetched over HTTP from the relay list service.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

// ErrNoMatchingRelay is returned by Select when no relay satisfies the
// given constraints.
var ErrNoMatchingRelay = errors.New("no relay matches the given constraints")

// DefaultListURL is the relay list service used when none is configured.
const DefaultListURL = "https://api.mullvad.net/app/v1/relays"

// Selector caches the relay list in memory and answers constraint-based
// lookups against it without blocking on the network.
type Selector struct {
	url        string
	httpClient *http.Client

	mu   sync.RWMutex
	list core.RelayList
}

// New creates a Selector. Call Refresh once before first use — an empty
// cache means every Select fails with ErrNoMatchingRelay.
func New(url string) *Selector {
	if url == "" {
		url = DefaultListURL
	}
	return &Selector{url: url, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// Refresh fetches the relay list and atomically swaps it into the cache.
func (s *Selector) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay: fetch list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay: list service returned %d", resp.StatusCode)
	}

	var list core.RelayList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return fmt.Errorf("relay: decode list: %w", err)
	}

	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	core.Log.Infof("Relay", "refreshed relay list: %d countries", len(list.Countries))
	return nil
}

// StartBackgroundRefresh refreshes the relay list on a fixed interval
// until ctx is cancelled. The caller should Refresh once synchronously
// at startup before handing off to this.
func (s *Selector) StartBackgroundRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				core.Log.Warnf("Relay", "background refresh: %v", err)
			}
		}
	}
}

// List implements supervisor.RelaySelector.
func (s *Selector) List() core.RelayList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list
}

// Select implements supervisor.RelaySelector, returning the first relay
// in the cached list that matches the non-empty Country and City
// constraints. Protocol and Port are not matched against relays; they
// are copied into the returned Endpoint. Custom is not consulted.
func (s *Selector) Select(settings core.RelaySettings) (tunnel.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	constraints := settings.Constraints
	for _, country := range s.list.Countries {
		if constraints != nil && constraints.Country != "" && constraints.Country != country.Code {
			continue
		}
		for _, city := range country.Cities {
			if constraints != nil && constraints.City != "" && constraints.City != city.Code {
				continue
			}
			for _, r := range city.Relays {
				return s.endpointFor(r, constraints), nil
			}
		}
	}
	return tunnel.Endpoint{}, ErrNoMatchingRelay
}

// Locate reports the cached location of the relay whose address matches
// host, for answering GetCurrentLocation without a network round trip
// while connected to a known relay.
func (s *Selector) Locate(host string) (core.GeoIPLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, country := range s.list.Countries {
		for _, city := range country.Cities {
			for _, r := range city.Relays {
				if r.IPv4Addr.String() != host {
					continue
				}
				return core.GeoIPLocation{
					IP:           r.IPv4Addr,
					Country:      r.Country,
					City:         r.City,
					Latitude:     r.Latitude,
					Longitude:    r.Longitude,
					ViaMvpnRelay: true,
				}, true
			}
		}
	}
	return core.GeoIPLocation{}, false
}

func (s *Selector) endpointFor(r core.Relay, constraints *core.RelayConstraints) tunnel.Endpoint {
	protocol := "wireguard"
	var port uint16 = 51820
	if constraints != nil {
		if constraints.Protocol != "" {
			protocol = constraints.Protocol
		}
		if constraints.Port != nil {
			port = *constraints.Port
		}
	}
	return tunnel.Endpoint{Host: r.IPv4Addr.String(), Port: port, Protocol: protocol}
}
