package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"docling-batch/internal/discovery"
)

// Stage names reported through Request.OnStage.
const (
	StageDiscovering = "discovering"
	StageConverting  = "converting"
	StageCleaning    = "cleaning"
)

// Request contains the batch configuration and execution callbacks.
type Request struct {
	Config     Config
	OnStage    func(stage string)
	OnProgress func(index, total int, file discovery.File)
	OnLog      func(log CommandLog)
	OnFileErr  func(fileErr *FileError)
}

// Result summarizes one batch run. A partially failed run still returns a
// Result alongside a nil error; Failures carries the per-file detail.
type Result struct {
	Files          []discovery.File
	Converted      []string
	Failures       []*FileError
	Deleted        []string
	DeleteFailures []string
}

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// FileError describes one document's failed conversion with full command
// context.
type FileError struct {
	File string     `json:"file"`
	Log  CommandLog `json:"log"`
	Err  error      `json:"-"`
}

// Error formats per-file failures for logs and UI.
func (e *FileError) Error() string {
	if e == nil {
		return ""
	}

	detail := strings.TrimSpace(e.Log.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(e.Log.Stdout)
	}
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	return fmt.Sprintf("%s: docling exited with code %d: %s", e.File, e.Log.ExitCode, detail)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *FileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BatchError is a fatal run error raised before or instead of per-file
// processing (bad paths, empty match set, all files failed).
type BatchError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats batch failures for logs and UI.
func (e *BatchError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *BatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability. Run blocks
// until the process exits; a started conversion is never killed, so there
// is deliberately no context parameter here.
type commandRunner interface {
	Run(name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(name string, args ...string) (commandResult, error) {
	cmd := exec.Command(name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Batch runs docling over every eligible file under the input root, one
// process at a time, in discovery order.
type Batch struct {
	doclingPath string
	runner      commandRunner
	discover    func(rootDir string) ([]discovery.File, error)
	stat        func(name string) (os.FileInfo, error)
	mkdirAll    func(path string, perm os.FileMode) error
	remove      func(name string) error
}

// NewBatch constructs the production batch runner with OS dependencies.
func NewBatch() *Batch {
	return &Batch{
		doclingPath: DoclingBin,
		runner:      &execRunner{},
		discover:    discovery.Discover,
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
		remove:      os.Remove,
	}
}

// Run executes the batch. Cancellation is cooperative: ctx is consulted only
// between files, never mid-subprocess, and already-produced output is kept.
// The returned error is context.Canceled, a *BatchError, or nil; per-file
// failures do not abort the run.
func (b *Batch) Run(ctx context.Context, req Request) (Result, error) {
	cfg := req.Config

	info, err := b.stat(cfg.InputDir)
	if err != nil {
		return Result{}, &BatchError{
			Stage:   StageDiscovering,
			Message: fmt.Sprintf("cannot access input directory: %s", cfg.InputDir),
			Err:     err,
		}
	}
	if !info.IsDir() {
		return Result{}, &BatchError{
			Stage:   StageDiscovering,
			Message: fmt.Sprintf("input path is not a directory: %s", cfg.InputDir),
		}
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		return Result{}, &BatchError{
			Stage:   StageDiscovering,
			Message: "output directory is required",
		}
	}
	if err := b.mkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Result{}, &BatchError{
			Stage:   StageDiscovering,
			Message: fmt.Sprintf("cannot create output directory: %s", cfg.OutputDir),
			Err:     err,
		}
	}

	emitStage(req.OnStage, StageDiscovering)
	files, err := b.discover(cfg.InputDir)
	if err != nil {
		return Result{}, &BatchError{
			Stage:   StageDiscovering,
			Message: err.Error(),
			Err:     err,
		}
	}
	if len(files) == 0 {
		return Result{}, &BatchError{
			Stage:   StageDiscovering,
			Message: fmt.Sprintf("no matching files in %s", cfg.InputDir),
		}
	}

	result := Result{Files: files}
	emitStage(req.OnStage, StageConverting)

	for i, file := range files {
		if ctx.Err() != nil {
			return result, context.Canceled
		}

		if req.OnProgress != nil {
			req.OnProgress(i+1, len(files), file)
		}

		if err := b.convertOne(cfg, file, req, &result); err != nil {
			result.Failures = append(result.Failures, err)
			if req.OnFileErr != nil {
				req.OnFileErr(err)
			}
		}
	}

	if len(result.Converted) == 0 {
		return result, &BatchError{
			Stage:   StageConverting,
			Message: fmt.Sprintf("all %d files failed to convert", len(files)),
			Err:     result.Failures[0],
		}
	}

	if cfg.DeleteSources && len(result.Failures) == 0 {
		emitStage(req.OnStage, StageCleaning)
		b.deleteSources(files, &result)
	}

	return result, nil
}

// convertOne prepares the mirrored output directory and runs docling for a
// single file.
func (b *Batch) convertOne(cfg Config, file discovery.File, req Request, result *Result) *FileError {
	outDir := OutputDirFor(cfg, file)
	if err := b.mkdirAll(outDir, 0o755); err != nil {
		return &FileError{
			File: file.RelPath,
			Err:  fmt.Errorf("create output directory %s: %w", outDir, err),
		}
	}

	args := BuildArgs(cfg, file)
	cmdResult, runErr := b.runner.Run(b.doclingPath, args...)
	log := CommandLog{
		Command:  b.doclingPath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	emitLog(req.OnLog, log)

	if runErr != nil {
		return &FileError{File: file.RelPath, Log: log, Err: runErr}
	}

	result.Converted = append(result.Converted, file.RelPath)
	return nil
}

// deleteSources removes the run's source files best-effort after a fully
// successful pass. Failures are recorded, never fatal.
func (b *Batch) deleteSources(files []discovery.File, result *Result) {
	for _, file := range files {
		if err := b.remove(file.Path); err != nil {
			result.DeleteFailures = append(result.DeleteFailures,
				fmt.Sprintf("%s: %v", file.RelPath, err))
			continue
		}
		result.Deleted = append(result.Deleted, file.RelPath)
	}
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}

// emitLog forwards command logs when callback is configured.
func emitLog(cb func(log CommandLog), log CommandLog) {
	if cb != nil {
		cb(log)
	}
}

// NewBatchForTests constructs a batch runner with injectable dependencies.
func NewBatchForTests(
	doclingPath string,
	runner commandRunner,
	discover func(rootDir string) ([]discovery.File, error),
	stat func(name string) (os.FileInfo, error),
	mkdirAll func(path string, perm os.FileMode) error,
	remove func(name string) error,
) *Batch {
	b := NewBatch()
	if doclingPath != "" {
		b.doclingPath = doclingPath
	}
	if runner != nil {
		b.runner = runner
	}
	if discover != nil {
		b.discover = discover
	}
	if stat != nil {
		b.stat = stat
	}
	if mkdirAll != nil {
		b.mkdirAll = mkdirAll
	}
	if remove != nil {
		b.remove = remove
	}
	return b
}
