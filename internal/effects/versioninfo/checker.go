// Package versioninfo implements supervisor.VersionInfoProvider by
// polling GitHub Releases for the newest published daemon version.
package versioninfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mvpnd/internal/core"
)

// Repo is the GitHub repository releases are published under.
const Repo = "mullvad/mvpnd"

type githubRelease struct {
	TagName string `json:"tag_name"`
}

// Provider answers version queries against the currently running
// daemon's compiled-in version string.
type Provider struct {
	repo           string
	currentVersion string
	httpClient     *http.Client
}

// New creates a Provider. currentVersion is normally set at build time
// via -ldflags.
func New(currentVersion string) *Provider {
	return &Provider{
		repo:           Repo,
		currentVersion: currentVersion,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Current implements supervisor.VersionInfoProvider.
func (p *Provider) Current() string {
	return p.currentVersion
}

// Latest implements supervisor.VersionInfoProvider.
func (p *Provider) Latest(ctx context.Context) (core.AppVersionInfo, error) {
	if p.currentVersion == "dev" || p.currentVersion == "" {
		return core.AppVersionInfo{CurrentIsSupported: true, Latest: p.currentVersion}, nil
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", p.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.AppVersionInfo{}, fmt.Errorf("versioninfo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "mvpnd/"+p.currentVersion)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return core.AppVersionInfo{}, fmt.Errorf("versioninfo: fetch release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.AppVersionInfo{CurrentIsSupported: true, Latest: p.currentVersion}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return core.AppVersionInfo{}, fmt.Errorf("versioninfo: GitHub API returned %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return core.AppVersionInfo{}, fmt.Errorf("versioninfo: decode response: %w", err)
	}

	latest := normalizeVersion(release.TagName)
	core.Log.Debugf("VersionInfo", "latest published release is %s (running %s)", latest, p.currentVersion)

	return core.AppVersionInfo{
		CurrentIsSupported: !isNewer(latest, normalizeVersion(p.currentVersion)),
		Latest:             latest,
	}, nil
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

func isNewer(release, current string) bool {
	rParts := parseSemver(release)
	cParts := parseSemver(current)
	for i := 0; i < 3; i++ {
		if rParts[i] > cParts[i] {
			return true
		}
		if rParts[i] < cParts[i] {
			return false
		}
	}
	return false
}

func parseSemver(v string) [3]int {
	var parts [3]int
	if idx := strings.IndexByte(v, '-'); idx >= 0 {
		v = v[:idx]
	}
	segments := strings.SplitN(v, ".", 3)
	for i, s := range segments {
		if i >= 3 {
			break
		}
		n := 0
		for _, c := range s {
			if c >= '0' && c <= '9' {
				n = n*10 + int(c-'0')
			} else {
				break
			}
		}
		parts[i] = n
	}
	return parts
}
