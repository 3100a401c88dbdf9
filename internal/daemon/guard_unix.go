//go:build !windows

package daemon

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const lockFilePath = "/var/run/mvpnd.lock"

// acquirePlatformLock takes an advisory exclusive flock on a well-known
// path, the same primitive mullvad-daemon's rpc_uniqueness_check falls
// back to when the RPC probe alone can't distinguish "starting up" from
// "already running".
func acquirePlatformLock() (release func(), err error) {
	f, err := os.OpenFile(lockFilePath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("daemon: open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: lock file held by another process", ErrAlreadyRunning)
	}

	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
