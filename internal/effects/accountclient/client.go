// Package accountclient implements supervisor.AccountClient against the
// upstream account management API.
package accountclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mvpnd/internal/core"
)

// DefaultURL is the account API used when none is configured.
const DefaultURL = "https://api.mullvad.net/app/v1/accounts"

type accountResponse struct {
	ExpiresAt string `json:"expires_at"`
}

// Client fetches account data over HTTPS, bearer-authenticated with the
// account token itself.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a Client.
func New() *Client {
	return &Client{url: DefaultURL, httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// GetAccountData implements supervisor.AccountClient.
func (c *Client) GetAccountData(ctx context.Context, token string) (core.AccountData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/me", nil)
	if err != nil {
		return core.AccountData{}, fmt.Errorf("accountclient: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.AccountData{}, fmt.Errorf("accountclient: fetch account: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return core.AccountData{}, fmt.Errorf("accountclient: invalid account token")
	}
	if resp.StatusCode != http.StatusOK {
		return core.AccountData{}, fmt.Errorf("accountclient: account API returned %d", resp.StatusCode)
	}

	var body accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return core.AccountData{}, fmt.Errorf("accountclient: decode response: %w", err)
	}
	return core.AccountData{ExpiresAt: body.ExpiresAt}, nil
}
