// Package convert builds docling invocations and runs them sequentially
// over a discovered batch of documents.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"docling-batch/internal/discovery"
	"docling-batch/internal/domain"
)

// DoclingBin is the external converter binary invoked per file.
const DoclingBin = "docling"

// Config is the immutable configuration for one batch run.
type Config struct {
	InputDir      string
	OutputDir     string
	Format        domain.ExportFormat
	TableMode     domain.TableMode
	OCR           bool
	ForceOCR      bool
	OCREngine     string
	Verbosity     int
	DeleteSources bool
}

// ConfigFromSettings validates persisted settings into a run configuration.
func ConfigFromSettings(s domain.Settings) (Config, error) {
	format, err := domain.ParseExportFormat(s.ExportFormat)
	if err != nil {
		return Config{}, err
	}

	tableMode, err := domain.ParseTableMode(s.TableMode)
	if err != nil {
		return Config{}, err
	}

	engine := strings.TrimSpace(s.OCREngine)
	if !domain.KnownOCREngine(engine) {
		return Config{}, fmt.Errorf("unknown OCR engine: %q", s.OCREngine)
	}

	verbosity := s.Verbosity
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity > 2 {
		verbosity = 2
	}

	return Config{
		InputDir:      strings.TrimSpace(s.InputPath),
		OutputDir:     strings.TrimSpace(s.OutputPath),
		Format:        format,
		TableMode:     tableMode,
		OCR:           s.OCREnabled,
		ForceOCR:      s.ForceOCR,
		OCREngine:     engine,
		Verbosity:     verbosity,
		DeleteSources: s.DeleteSources,
	}, nil
}

// OutputDirFor returns the per-file output directory: the batch output root
// plus the file's relative parent, so the input tree structure is mirrored.
func OutputDirFor(cfg Config, file discovery.File) string {
	return filepath.Join(cfg.OutputDir, filepath.Dir(file.RelPath))
}

// BuildArgs constructs the docling argument list for one input file. Pure:
// no validation beyond what the runner already guarantees.
func BuildArgs(cfg Config, file discovery.File) []string {
	args := []string{
		file.Path,
		"--to", string(cfg.Format),
		"--output", OutputDirFor(cfg, file),
	}

	if cfg.OCR {
		args = append(args, "--ocr")
	} else {
		args = append(args, "--no-ocr")
	}
	if cfg.ForceOCR {
		args = append(args, "--force-ocr")
	} else {
		args = append(args, "--no-force-ocr")
	}

	args = append(args,
		"--ocr-engine", cfg.OCREngine,
		"--table-mode", string(cfg.TableMode),
	)

	for i := 0; i < cfg.Verbosity; i++ {
		args = append(args, "-v")
	}

	return args
}
