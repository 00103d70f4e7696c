package config

import (
	"os"
	"path/filepath"

	"docling-batch/internal/domain"
)

// DefaultSettings returns baseline configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	docs := filepath.Join(homeDir, "Documents")
	return domain.Settings{
		InputPath:    docs,
		OutputPath:   docs,
		ExportFormat: string(domain.FormatMarkdown),
		OCREngine:    "easyocr",
		TableMode:    string(domain.TableModeAccurate),
	}
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".docling-batch", "settings.json")
}
