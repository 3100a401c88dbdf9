//go:build windows

package dns

import (
	"fmt"
	"os/exec"
	"strings"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

// tunnelInterfaceAlias matches the adapter name the tunnel process
// brings up; see the naming-convention simplification noted in the
// firewall package.
const tunnelInterfaceAlias = "mvpnd-tunnel"

type windowsManager struct {
	backupDir string
}

func newPlatform(backupDir string) tunnel.DnsManager {
	return &windowsManager{backupDir: backupDir}
}

func (m *windowsManager) Set(servers []string) error {
	if err := writeBackup(m.backupDir, []byte(tunnelInterfaceAlias+"\n")); err != nil {
		return err
	}
	args := []string{"interface", "ip", "set", "dns", tunnelInterfaceAlias, "static", servers[0]}
	if out, err := exec.Command("netsh", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("netsh set dns: %w: %s", err, out)
	}
	for _, extra := range servers[1:] {
		out, err := exec.Command("netsh", "interface", "ip", "add", "dns", tunnelInterfaceAlias, extra, "index=2").CombinedOutput()
		if err != nil {
			core.Log.Warnf("DNS", "netsh add dns %s: %v: %s", extra, err, out)
		}
	}
	return nil
}

func (m *windowsManager) Reset() error {
	out, err := exec.Command("netsh", "interface", "ip", "set", "dns", tunnelInterfaceAlias, "dhcp").CombinedOutput()
	if err != nil && !strings.Contains(string(out), "element not found") {
		core.Log.Warnf("DNS", "netsh reset dns: %v: %s", err, out)
	}
	return clearBackup(m.backupDir)
}

func recoverOnStartup(backupDir string) (bool, error) {
	backup, err := readBackup(backupDir)
	if err != nil || backup == nil {
		return false, err
	}
	core.Log.Warnf("DNS", "recovering DNS configuration left by an unclean shutdown")
	out, err := exec.Command("netsh", "interface", "ip", "set", "dns", strings.TrimSpace(string(backup)), "dhcp").CombinedOutput()
	if err != nil {
		core.Log.Warnf("DNS", "netsh reset dns during recovery: %v: %s", err, out)
	}
	return true, clearBackup(backupDir)
}
