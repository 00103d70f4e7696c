package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"docling-batch/internal/domain"
)

// Checker validates the external converter and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("docling"),
		c.checkInputDir(settings.InputPath),
		c.checkOutputDir(settings.OutputPath),
		c.checkOCREngine(settings.OCREngine),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name string) domain.DiagnosticItem {
	path, err := c.lookPath(name)
	if err != nil {
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    "Install docling (pip install docling) and ensure the binary is available on PATH before starting a conversion run.",
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

// checkInputDir validates the configured input directory.
func (c *Checker) checkInputDir(inputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "input_dir",
		Name: "Input directory",
	}

	if strings.TrimSpace(inputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Input directory is empty."
		item.Hint = "Select the folder that contains the documents to convert."
		return item
	}

	info, err := c.stat(inputDir)
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		if errors.Is(err, os.ErrNotExist) {
			item.Message = fmt.Sprintf("Input directory does not exist: %s", inputDir)
		} else {
			item.Message = fmt.Sprintf("Cannot access input directory: %s", inputDir)
		}
		item.Hint = "Choose an existing, readable folder."
		return item
	}

	if !info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Input path is not a directory: %s", inputDir)
		item.Hint = "Select a folder, not a file."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Input directory found: %s", inputDir)
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Output directory is empty."
		item.Hint = "Set an output directory where converted documents can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for converted output."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkOCREngine validates the configured OCR engine name.
func (c *Checker) checkOCREngine(engine string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "ocr_engine",
		Name: "OCR engine",
	}

	if domain.KnownOCREngine(engine) {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("OCR engine configured: %s", strings.TrimSpace(engine))
		return item
	}

	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("Unknown OCR engine: %q", engine)
	item.Hint = fmt.Sprintf("Pick one of: %s.", strings.Join(domain.OCREngines(), ", "))
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
