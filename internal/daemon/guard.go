// Package daemon wires every effect implementation into a running
// Supervisor and tunnel Machine, and owns the process-level startup and
// shutdown sequence.
package daemon

import (
	"context"
	"fmt"
	"time"

	"mvpnd/internal/core"
	"mvpnd/internal/effects/management"
)

// guardDialTimeout bounds how long the single-instance probe waits for
// a running daemon to answer before concluding none is listening.
const guardDialTimeout = 500 * time.Millisecond

// ErrAlreadyRunning is returned by EnsureSingleInstance when another
// daemon is already serving the management interface.
var ErrAlreadyRunning = fmt.Errorf("mvpnd is already running")

// EnsureSingleInstance probes the management address the way
// mullvad-daemon's rpc_uniqueness_check does: try to dial it, and if
// something answers, refuse to start a second daemon. The platform file
// lock obtained alongside this (see guard_unix.go / guard_windows.go)
// catches the narrower race where two daemons start concurrently before
// either has opened its listener.
func EnsureSingleInstance() (release func(), err error) {
	release, err = acquirePlatformLock()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), guardDialTimeout)
	defer cancel()
	client, dialErr := management.DialWithTimeout(ctx, guardDialTimeout)
	if dialErr == nil {
		_, probeErr := client.GetCurrentVersion(ctx)
		client.Close()
		if probeErr == nil {
			release()
			return nil, ErrAlreadyRunning
		}
		core.Log.Debugf("Daemon", "single-instance probe: stale socket, no daemon answered (%v)", probeErr)
	} else {
		core.Log.Debugf("Daemon", "single-instance probe: no running daemon found (%v)", dialErr)
	}
	return release, nil
}
