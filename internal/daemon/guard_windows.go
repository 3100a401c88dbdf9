//go:build windows

package daemon

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// lockName is a global named mutex used as the Windows equivalent of
// the Unix flock: whichever process creates it first owns the lock,
// and a second CreateMutex call surfaces ERROR_ALREADY_EXISTS rather
// than racing on a pipe name the way a named-pipe-based check would.
const lockName = "Global\\mvpnd-singleton"

func acquirePlatformLock() (release func(), err error) {
	namePtr, err := windows.UTF16PtrFromString(lockName)
	if err != nil {
		return nil, fmt.Errorf("daemon: encode lock name: %w", err)
	}

	handle, err := windows.CreateMutex(nil, false, namePtr)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("%w: named mutex already held", ErrAlreadyRunning)
	}
	if err != nil {
		return nil, fmt.Errorf("daemon: create mutex: %w", err)
	}

	return func() {
		windows.CloseHandle(handle)
	}, nil
}
