// Package settingsstore persists core.Settings to a YAML file on disk,
// writing atomically so a crash mid-write never leaves a corrupt or
// half-written settings file behind.
package settingsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"mvpnd/internal/core"
)

const fileName = "settings.yml"

// Store reads and writes Settings under a single directory.
type Store struct {
	mu       sync.Mutex
	filePath string
}

// New creates a Store rooted at dataDir. dataDir is created on first Save.
func New(dataDir string) *Store {
	return &Store{filePath: filepath.Join(dataDir, fileName)}
}

// Load reads settings from disk, returning core.Default() if no settings
// file exists yet.
func (s *Store) Load() (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			core.Log.Debugf("Settings", "no settings file at %s, using defaults", s.filePath)
			return core.Default(), nil
		}
		return core.Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var settings core.Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return core.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// Save writes settings to disk atomically (temp file + rename).
func (s *Store) Save(settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write settings temp: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename settings: %w", err)
	}

	core.Log.Infof("Settings", "saved settings to %s", s.filePath)
	return nil
}
