package domain

import (
	"fmt"
	"strings"
)

// RunStatus tracks the lifecycle of a single batch conversion run.
type RunStatus string

const (
	RunStatusIdle        RunStatus = "idle"
	RunStatusDiscovering RunStatus = "discovering"
	RunStatusConverting  RunStatus = "converting"
	RunStatusCleaning    RunStatus = "cleaning"
	RunStatusDone        RunStatus = "done"
	RunStatusFailed      RunStatus = "failed"
	RunStatusCancelled   RunStatus = "cancelled"
)

// ExportFormat is one of the output formats docling can produce.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "md"
	FormatJSON     ExportFormat = "json"
	FormatText     ExportFormat = "text"
	FormatDoctags  ExportFormat = "doctags"
)

// ExportFormats lists the selectable output formats in UI order.
func ExportFormats() []ExportFormat {
	return []ExportFormat{FormatMarkdown, FormatJSON, FormatText, FormatDoctags}
}

// ParseExportFormat validates a format name from settings or flags.
func ParseExportFormat(raw string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FormatMarkdown, FormatJSON, FormatText, FormatDoctags:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", raw)
	}
}

// TableMode selects docling's table structure extraction quality.
type TableMode string

const (
	TableModeFast     TableMode = "fast"
	TableModeAccurate TableMode = "accurate"
)

// ParseTableMode validates a table mode name from settings or flags.
func ParseTableMode(raw string) (TableMode, error) {
	m := TableMode(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case TableModeFast, TableModeAccurate:
		return m, nil
	default:
		return "", fmt.Errorf("unknown table mode: %q", raw)
	}
}

// OCREngines lists the engines docling accepts for --ocr-engine.
func OCREngines() []string {
	return []string{"easyocr", "tesseract", "tesseract_cli", "ocrmac"}
}

// KnownOCREngine reports whether name is a supported OCR engine.
func KnownOCREngine(name string) bool {
	for _, engine := range OCREngines() {
		if strings.EqualFold(strings.TrimSpace(name), engine) {
			return true
		}
	}
	return false
}

// Settings contains user-selectable runtime configuration. JSON keys match
// the on-disk settings file.
type Settings struct {
	InputPath     string `json:"input_path"`
	OutputPath    string `json:"output_path"`
	ExportFormat  string `json:"export_format"`
	OCREnabled    bool   `json:"ocr_enabled"`
	ForceOCR      bool   `json:"force_ocr"`
	OCREngine     string `json:"ocr_engine"`
	TableMode     string `json:"table_mode"`
	Verbosity     int    `json:"verbosity"`
	DeleteSources bool   `json:"delete_pdfs"`
}

// Run stores the current run identity, lifecycle status, and progress.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
}
