package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"docling-batch/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// JSONStore persists settings in a single JSON file on disk. Persistence is
// best-effort: a missing, unreadable, or malformed file loads as defaults.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads settings from disk. Any read or parse failure falls back to
// defaults so a corrupt file never blocks startup; the error return exists
// only to satisfy Store and is always nil.
func (s *JSONStore) Load() (domain.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("settings: read %s: %v, using defaults", s.path, err)
		}
		return DefaultSettings(), nil
	}

	cfg := DefaultSettings()
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("settings: parse %s: %v, using defaults", s.path, err)
		return DefaultSettings(), nil
	}

	return cfg, nil
}

// Save writes settings as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}
