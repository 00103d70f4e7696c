package config

import (
	"os"
	"path/filepath"
	"testing"

	"docling-batch/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.ExportFormat != "md" {
		t.Fatalf("export format = %q, want md", cfg.ExportFormat)
	}
	if cfg.OCREngine != "easyocr" {
		t.Fatalf("ocr engine = %q, want easyocr", cfg.OCREngine)
	}
	if cfg.TableMode != "accurate" {
		t.Fatalf("table mode = %q, want accurate", cfg.TableMode)
	}
	if cfg.InputPath == "" || cfg.OutputPath == "" {
		t.Fatal("expected non-empty input and output paths")
	}
	if cfg.Verbosity != 0 || cfg.OCREnabled || cfg.ForceOCR || cfg.DeleteSources {
		t.Fatalf("unexpected non-zero defaults: %+v", cfg)
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.json")
	store := NewJSONStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	store := NewJSONStore(path)
	want := domain.Settings{
		InputPath:     "/docs/in",
		OutputPath:    "/docs/out",
		ExportFormat:  "json",
		OCREnabled:    true,
		ForceOCR:      true,
		OCREngine:     "tesseract",
		TableMode:     "fast",
		Verbosity:     2,
		DeleteSources: true,
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadInvalidJSONReturnsDefaults checks corrupt-file fallback.
func TestJSONStoreLoadInvalidJSONReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestJSONStoreLoadPartialKeepsDefaults checks missing keys fall back.
func TestJSONStoreLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"input_path":"/scans","verbosity":1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.InputPath != "/scans" {
		t.Fatalf("input path = %q, want /scans", got.InputPath)
	}
	if got.Verbosity != 1 {
		t.Fatalf("verbosity = %d, want 1", got.Verbosity)
	}
	if got.OCREngine != "easyocr" || got.TableMode != "accurate" {
		t.Fatalf("missing keys did not fall back to defaults: %+v", got)
	}
}
