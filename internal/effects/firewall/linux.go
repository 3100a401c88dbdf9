//go:build linux

package firewall

import (
	"fmt"

	"github.com/coreos/go-iptables/iptables"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

const (
	chainName   = "MVPND"
	filterTable = "filter"
	// tunnelIfacePrefix identifies the tunnel's virtual interface by name
	// rather than by address, since the concrete interface isn't known
	// until the tunnel process has already brought it up.
	tunnelIfacePrefix = "wg-mvpnd"
)

type linuxFirewall struct {
	ipt4 *iptables.IPTables
	ipt6 *iptables.IPTables
}

func newPlatform() tunnel.FirewallPolicy {
	ipt4, err4 := iptables.NewWithProtocol(iptables.ProtocolIPv4)
	ipt6, err6 := iptables.NewWithProtocol(iptables.ProtocolIPv6)
	if err4 != nil {
		core.Log.Warnf("Firewall", "iptables unavailable: %v", err4)
	}
	if err6 != nil {
		core.Log.Warnf("Firewall", "ip6tables unavailable: %v", err6)
	}
	return &linuxFirewall{ipt4: ipt4, ipt6: ipt6}
}

func (f *linuxFirewall) Apply(mode tunnel.FirewallMode) error {
	if err := f.clear(f.ipt4); err != nil {
		return err
	}
	if f.ipt6 != nil {
		if err := f.clear(f.ipt6); err != nil {
			core.Log.Warnf("Firewall", "clear ip6tables chain: %v", err)
		}
	}

	if mode.Kind == tunnel.FirewallOff {
		return nil
	}

	if err := f.install(f.ipt4, mode); err != nil {
		return err
	}
	if f.ipt6 != nil {
		if err := f.install(f.ipt6, mode); err != nil {
			core.Log.Warnf("Firewall", "install ip6tables rules: %v", err)
		}
	}
	return nil
}

func (f *linuxFirewall) clear(ipt *iptables.IPTables) error {
	if ipt == nil {
		return nil
	}
	exists, err := ipt.ChainExists(filterTable, chainName)
	if err != nil {
		return fmt.Errorf("check chain: %w", err)
	}
	if exists {
		_ = ipt.Delete(filterTable, "OUTPUT", "-j", chainName)
		if err := ipt.ClearChain(filterTable, chainName); err != nil {
			return fmt.Errorf("clear chain: %w", err)
		}
		if err := ipt.DeleteChain(filterTable, chainName); err != nil {
			return fmt.Errorf("delete chain: %w", err)
		}
	}
	return nil
}

// install builds the MVPND chain fresh and jumps OUTPUT into it. Order
// matters: the chain must exist and be fully populated with its allow
// rules before the jump rule is inserted, or a packet could transit
// between rule installs during FirewallBlockAllExceptTunnel.
func (f *linuxFirewall) install(ipt *iptables.IPTables, mode tunnel.FirewallMode) error {
	if err := ipt.NewChain(filterTable, chainName); err != nil {
		return fmt.Errorf("create chain: %w", err)
	}

	if err := ipt.AppendUnique(filterTable, chainName, "-o", "lo", "-j", "ACCEPT"); err != nil {
		return fmt.Errorf("allow loopback: %w", err)
	}

	if mode.AllowLAN {
		for _, cidr := range lanRanges {
			if err := ipt.AppendUnique(filterTable, chainName, "-d", cidr, "-j", "ACCEPT"); err != nil {
				return fmt.Errorf("allow LAN range %s: %w", cidr, err)
			}
		}
	}

	if mode.Kind == tunnel.FirewallBlockAllExceptTunnel {
		if err := ipt.AppendUnique(filterTable, chainName, "-o", tunnelIfacePrefix+"+", "-j", "ACCEPT"); err != nil {
			return fmt.Errorf("allow tunnel interface: %w", err)
		}
	}

	if err := ipt.AppendUnique(filterTable, chainName, "-j", "DROP"); err != nil {
		return fmt.Errorf("append default drop: %w", err)
	}

	if err := ipt.Insert(filterTable, "OUTPUT", 1, "-j", chainName); err != nil {
		return fmt.Errorf("jump OUTPUT to chain: %w", err)
	}
	return nil
}
