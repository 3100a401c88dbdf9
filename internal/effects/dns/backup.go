package dns

import (
	"fmt"
	"os"
	"path/filepath"
)

const backupFileName = "dns_backup"

func backupPath(backupDir string) string {
	return filepath.Join(backupDir, backupFileName)
}

// writeBackup atomically stashes the pre-override configuration so a
// crash between Set and Reset can still be recovered from on next
// startup.
func writeBackup(backupDir string, contents []byte) error {
	if err := os.MkdirAll(backupDir, 0700); err != nil {
		return fmt.Errorf("create dns backup dir: %w", err)
	}
	path := backupPath(backupDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, contents, 0600); err != nil {
		return fmt.Errorf("write dns backup: %w", err)
	}
	return os.Rename(tmp, path)
}

// readBackup returns the stashed configuration, or (nil, nil) if there
// is none.
func readBackup(backupDir string) ([]byte, error) {
	data, err := os.ReadFile(backupPath(backupDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func clearBackup(backupDir string) error {
	err := os.Remove(backupPath(backupDir))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
