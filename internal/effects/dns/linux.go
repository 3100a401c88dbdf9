//go:build linux

package dns

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"mvpnd/internal/core"
	"mvpnd/internal/tunnel"
)

// resolvConfPath is overridden by static-file mode only.
const resolvConfPath = "/etc/resolv.conf"

const resolvconfInterface = "mvpnd"

// dnsModeEnv selects between resolvconf(8) and direct /etc/resolv.conf
// editing. Absence triggers detection: resolvconf mode if the binary is
// on PATH, static-file mode otherwise.
const dnsModeEnv = "TALPID_DNS_MODULE"

type mode int

const (
	modeResolvconf mode = iota
	modeStaticFile
)

func detectMode() mode {
	switch os.Getenv(dnsModeEnv) {
	case "resolvconf":
		return modeResolvconf
	case "static-file":
		return modeStaticFile
	}
	if _, err := exec.LookPath("resolvconf"); err == nil {
		return modeResolvconf
	}
	return modeStaticFile
}

type linuxManager struct {
	backupDir string
	mode      mode
}

func newPlatform(backupDir string) tunnel.DnsManager {
	return &linuxManager{backupDir: backupDir, mode: detectMode()}
}

func (m *linuxManager) Set(servers []string) error {
	switch m.mode {
	case modeResolvconf:
		return m.setResolvconf(servers)
	default:
		return m.setStaticFile(servers)
	}
}

func (m *linuxManager) Reset() error {
	switch m.mode {
	case modeResolvconf:
		return m.resetResolvconf()
	default:
		return m.resetStaticFile()
	}
}

func (m *linuxManager) setResolvconf(servers []string) error {
	var sb strings.Builder
	for _, s := range servers {
		fmt.Fprintf(&sb, "nameserver %s\n", s)
	}
	cmd := exec.Command("resolvconf", "-a", resolvconfInterface, "-x")
	cmd.Stdin = strings.NewReader(sb.String())
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("resolvconf -a: %w: %s", err, out)
	}
	// A present backup means resolvconf already has our entry; nothing
	// further to stash, but writing one keeps recovery symmetric with the
	// static-file path.
	return writeBackup(m.backupDir, []byte("resolvconf\n"))
}

func (m *linuxManager) resetResolvconf() error {
	cmd := exec.Command("resolvconf", "-d", resolvconfInterface)
	if out, err := cmd.CombinedOutput(); err != nil {
		core.Log.Warnf("DNS", "resolvconf -d: %v: %s", err, out)
	}
	return clearBackup(m.backupDir)
}

func (m *linuxManager) setStaticFile(servers []string) error {
	current, err := os.ReadFile(resolvConfPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read resolv.conf: %w", err)
	}
	if err := writeBackup(m.backupDir, current); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("# managed by mvpnd while connected\n")
	for _, s := range servers {
		fmt.Fprintf(&sb, "nameserver %s\n", s)
	}
	if err := os.WriteFile(resolvConfPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write resolv.conf: %w", err)
	}
	return nil
}

func (m *linuxManager) resetStaticFile() error {
	backup, err := readBackup(m.backupDir)
	if err != nil {
		return fmt.Errorf("read dns backup: %w", err)
	}
	if backup == nil {
		return nil
	}
	if err := os.WriteFile(resolvConfPath, backup, 0644); err != nil {
		return fmt.Errorf("restore resolv.conf: %w", err)
	}
	return clearBackup(m.backupDir)
}

func recoverOnStartup(backupDir string) (bool, error) {
	backup, err := readBackup(backupDir)
	if err != nil || backup == nil {
		return false, err
	}
	core.Log.Warnf("DNS", "recovering DNS configuration left by an unclean shutdown")
	if string(backup) == "resolvconf\n" {
		cmd := exec.Command("resolvconf", "-d", resolvconfInterface)
		if out, err := cmd.CombinedOutput(); err != nil {
			core.Log.Warnf("DNS", "resolvconf -d during recovery: %v: %s", err, out)
		}
	} else if err := os.WriteFile(resolvConfPath, backup, 0644); err != nil {
		return false, fmt.Errorf("restore resolv.conf during recovery: %w", err)
	}
	return true, clearBackup(backupDir)
}
