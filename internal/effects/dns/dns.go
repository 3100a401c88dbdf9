// Package dns implements the tunnel.DnsManager effect: overriding
// system DNS resolution to the tunnel-assigned servers while connected,
// and restoring the prior configuration on disconnect. It also backs up
// whatever it overrides to disk so RecoverOnStartup can undo a dangling
// override left behind by a daemon that crashed mid-connection.
package dns

import "mvpnd/internal/tunnel"

// New returns the platform-appropriate DnsManager. backupDir is where
// the pre-override configuration is stashed until Reset restores it.
func New(backupDir string) tunnel.DnsManager {
	return validatingManager{DnsManager: newPlatform(backupDir)}
}

// RecoverOnStartup restores any DNS configuration left backed up by a
// previous run that never reached a clean Reset — the daemon equivalent
// of talpid's dns module re-asserting control after an unclean exit. The
// returned bool reports whether a dangling override was actually found
// and recovered, so the caller can decide whether to enter the daemon
// in a cautious (Blocked) starting state.
func RecoverOnStartup(backupDir string) (bool, error) {
	return recoverOnStartup(backupDir)
}
