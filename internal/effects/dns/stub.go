//go:build !linux && !windows && !darwin

package dns

import "mvpnd/internal/tunnel"

type stubManager struct{}

func newPlatform(backupDir string) tunnel.DnsManager { return stubManager{} }

func (stubManager) Set(servers []string) error { return nil }
func (stubManager) Reset() error               { return nil }

func recoverOnStartup(backupDir string) (bool, error) { return false, nil }
