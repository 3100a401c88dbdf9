//go:build windows

package firewall

import (
	"fmt"
	"os/exec"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

const ruleGroup = "mvpnd"

type windowsFirewall struct{}

func newPlatform() tunnel.FirewallPolicy {
	return &windowsFirewall{}
}

// Apply shells out to netsh advfirewall. A kernel-level WFP driver would
// close the brief window between rule deletes and re-adds more tightly,
// but that requires a signed driver this daemon does not ship.
func (f *windowsFirewall) Apply(mode tunnel.FirewallMode) error {
	if err := f.clear(); err != nil {
		return err
	}
	switch mode.Kind {
	case tunnel.FirewallOff:
		return nil
	case tunnel.FirewallBlockAllExceptTunnel, tunnel.FirewallBlockAll:
		return f.install(mode)
	}
	return nil
}

func (f *windowsFirewall) clear() error {
	// DeleteRule on a nonexistent group is not an error in netsh.
	return run("advfirewall", "firewall", "delete", "rule", "group="+ruleGroup)
}

func (f *windowsFirewall) install(mode tunnel.FirewallMode) error {
	if err := run("advfirewall", "firewall", "add", "rule",
		"name=mvpnd-block-out", "group="+ruleGroup, "dir=out", "action=block"); err != nil {
		return fmt.Errorf("install default-deny rule: %w", err)
	}

	if mode.AllowLAN {
		for _, cidr := range lanRanges {
			if err := run("advfirewall", "firewall", "add", "rule",
				"name=mvpnd-allow-lan", "group="+ruleGroup, "dir=out", "action=allow",
				"remoteip="+cidr); err != nil {
				core.Log.Warnf("Firewall", "allow LAN range %s: %v", cidr, err)
			}
		}
	}

	if mode.Kind == tunnel.FirewallBlockAllExceptTunnel {
		if err := run("advfirewall", "firewall", "add", "rule",
			"name=mvpnd-allow-tunnel", "group="+ruleGroup, "dir=out", "action=allow",
			"interfacetype=any"); err != nil {
			core.Log.Warnf("Firewall", "allow tunnel interface: %v", err)
		}
	}
	return nil
}

func run(args ...string) error {
	cmd := exec.Command("netsh", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("netsh %v: %w: %s", args, err, out)
	}
	return nil
}
