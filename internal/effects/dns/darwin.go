//go:build darwin

package dns

import (
	"fmt"
	"os/exec"
	"strings"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

type darwinManager struct {
	backupDir string
}

func newPlatform(backupDir string) tunnel.DnsManager {
	return &darwinManager{backupDir: backupDir}
}

func networkServices() ([]string, error) {
	out, err := exec.Command("networksetup", "-listallnetworkservices").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("list network services: %w", err)
	}
	var services []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "An asterisk") {
			continue
		}
		services = append(services, line)
	}
	return services, nil
}

func (m *darwinManager) Set(servers []string) error {
	services, err := networkServices()
	if err != nil {
		return err
	}

	var backup strings.Builder
	for _, svc := range services {
		out, err := exec.Command("networksetup", "-getdnsservers", svc).CombinedOutput()
		if err != nil {
			core.Log.Warnf("DNS", "getdnsservers %s: %v", svc, err)
			continue
		}
		fmt.Fprintf(&backup, "%s\t%s\n", svc, strings.TrimSpace(string(out)))
	}
	if err := writeBackup(m.backupDir, []byte(backup.String())); err != nil {
		return err
	}

	for _, svc := range services {
		args := append([]string{"-setdnsservers", svc}, servers...)
		if out, err := exec.Command("networksetup", args...).CombinedOutput(); err != nil {
			core.Log.Warnf("DNS", "setdnsservers %s: %v: %s", svc, err, out)
		}
	}
	return flushSystemDNS()
}

func (m *darwinManager) Reset() error {
	backup, err := readBackup(m.backupDir)
	if err != nil {
		return fmt.Errorf("read dns backup: %w", err)
	}
	if backup == nil {
		return nil
	}
	restoreFromBackup(backup)
	if err := flushSystemDNS(); err != nil {
		core.Log.Warnf("DNS", "flush system DNS: %v", err)
	}
	return clearBackup(m.backupDir)
}

func restoreFromBackup(backup []byte) {
	for _, line := range strings.Split(string(backup), "\n") {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		svc, prior := parts[0], strings.TrimSpace(parts[1])
		var args []string
		if prior == "" || strings.Contains(prior, "aren't any DNS Servers") {
			args = []string{"-setdnsservers", svc, "empty"}
		} else {
			args = append([]string{"-setdnsservers", svc}, strings.Fields(prior)...)
		}
		if out, err := exec.Command("networksetup", args...).CombinedOutput(); err != nil {
			core.Log.Warnf("DNS", "restore dns for %s: %v: %s", svc, err, out)
		}
	}
}

// flushSystemDNS flushes the macOS DNS cache.
func flushSystemDNS() error {
	if err := exec.Command("dscacheutil", "-flushcache").Run(); err != nil {
		return err
	}
	return exec.Command("killall", "-HUP", "mDNSResponder").Run()
}

func recoverOnStartup(backupDir string) (bool, error) {
	backup, err := readBackup(backupDir)
	if err != nil || backup == nil {
		return false, err
	}
	core.Log.Warnf("DNS", "recovering DNS configuration left by an unclean shutdown")
	restoreFromBackup(backup)
	return true, clearBackup(backupDir)
}
