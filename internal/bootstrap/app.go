package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"docling-batch/internal/config"
	"docling-batch/internal/convert"
	"docling-batch/internal/diagnostics"
	"docling-batch/internal/discovery"
	"docling-batch/internal/domain"
	"docling-batch/internal/jobs"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// App wires configuration, runs, the batch converter, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Runs        *jobs.Manager
	Batch       batchRunner
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker

	mu          sync.Mutex
	activeRunID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// batchRunner isolates the conversion batch behind an interface.
type batchRunner interface {
	Run(ctx context.Context, req convert.Request) (convert.Result, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	if err := ensureLocalBinOnPATH(homeDir); err != nil {
		return nil, fmt.Errorf("prepare local tool path: %w", err)
	}

	store := config.NewJSONStore(config.DefaultPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	return &App{
		Settings:    settings,
		Store:       store,
		Runs:        jobs.NewManager(),
		Batch:       convert.NewBatch(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		events:      jobs.NewEventBus(1000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Docling Batch Converter",
		Width:       1080,
		Height:      760,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown persists current settings best-effort and drops the runtime context.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	settings := a.Settings
	a.runtimeCtx = nil
	a.mu.Unlock()

	if err := a.Store.Save(settings); err != nil {
		log.Printf("save settings on shutdown: %v", err)
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	return normalized, nil
}

// ExportFormatOptions returns the selectable output formats for the UI.
func (a *App) ExportFormatOptions() []domain.ExportFormat {
	return domain.ExportFormats()
}

// OCREngineOptions returns the selectable OCR engines for the UI.
func (a *App) OCREngineOptions() []string {
	return domain.OCREngines()
}

// PickInputDirectory opens a native directory picker for the document root.
func (a *App) PickInputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select input folder",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for converted output.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output folder",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenOutputFolder opens the given path (or configured output dir) in file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputPath
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.Settings = settings
	a.Diagnostics = a.checker.Run(settings)
	return a.Diagnostics, nil
}

// StartConversion validates settings, creates a run, and executes it asynchronously.
func (a *App) StartConversion() (domain.Run, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Run{}, fmt.Errorf("load settings: %w", err)
	}

	cfg, err := convert.ConfigFromSettings(normalizeSettings(settings))
	if err != nil {
		return domain.Run{}, fmt.Errorf("invalid configuration: %w", err)
	}

	runID := uuid.NewString()
	if err := a.Runs.Start(runID); err != nil {
		return domain.Run{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.activeRunID = runID
	a.cancel = cancel
	a.Settings = settings
	a.mu.Unlock()

	a.publishStatus(runID, domain.RunStatusDiscovering, "Run started")

	go a.runConversion(ctx, runID, cfg)
	return a.Runs.Current(), nil
}

// CancelConversion requests cooperative cancellation of the active run. The
// file currently being converted finishes; remaining files are skipped.
func (a *App) CancelConversion() error {
	a.mu.Lock()
	cancel := a.cancel
	activeRunID := a.activeRunID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoActiveRun
	}

	cancel()
	if activeRunID != "" {
		a.publishStatus(activeRunID, a.Runs.Current().Status, "Cancellation requested")
	}
	return nil
}

// ResetRun returns a finished run to idle so a new one can be configured.
func (a *App) ResetRun() (domain.Run, error) {
	if a.Runs.IsActive() {
		return domain.Run{}, fmt.Errorf("cannot reset while a run is active")
	}
	a.Runs.Reset()
	return a.Runs.Current(), nil
}

// CurrentRun returns current run metadata, status, and progress.
func (a *App) CurrentRun() domain.Run {
	return a.Runs.Current()
}

// RunEvents returns all events with sequence greater than sinceSeq.
func (a *App) RunEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// runConversion executes the batch and maps outcomes to run events.
func (a *App) runConversion(ctx context.Context, runID string, cfg convert.Config) {
	defer func() {
		if r := recover(); r != nil {
			_ = a.Runs.Transition(domain.RunStatusFailed)
			a.publishEvent(jobs.Event{
				RunID:   runID,
				Type:    jobs.EventTypeError,
				Status:  domain.RunStatusFailed,
				Message: fmt.Sprintf("internal error: %v", r),
			})
			a.publishStatus(runID, domain.RunStatusFailed, "Run failed")
			a.clearActiveRun(runID)
		}
	}()

	req := convert.Request{
		Config: cfg,
		OnStage: func(stage string) {
			status, ok := mapStageToStatus(stage)
			if !ok {
				return
			}
			if err := a.Runs.Transition(status); err == nil {
				a.publishStatus(runID, status, "Running "+stage+" stage")
			}
		},
		OnProgress: func(index, total int, file discovery.File) {
			a.Runs.Progress(index, total)
			a.publishEvent(jobs.Event{
				RunID:   runID,
				Type:    jobs.EventTypeProgress,
				Status:  domain.RunStatusConverting,
				Message: fmt.Sprintf("Converting %s (%d/%d)", file.RelPath, index, total),
				File:    file.RelPath,
				Index:   index,
				Total:   total,
			})
		},
		OnLog: func(cmdLog convert.CommandLog) {
			a.publishEvent(jobs.Event{
				RunID:    runID,
				Type:     jobs.EventTypeLog,
				Message:  "Command completed",
				Command:  cmdLog.Command,
				Args:     cmdLog.Args,
				ExitCode: cmdLog.ExitCode,
				Stdout:   cmdLog.Stdout,
				Stderr:   cmdLog.Stderr,
			})
		},
		OnFileErr: func(fileErr *convert.FileError) {
			log.Printf("convert %s: %v", fileErr.File, fileErr)
			a.publishEvent(jobs.Event{
				RunID:    runID,
				Type:     jobs.EventTypeError,
				Message:  fileErr.Error(),
				File:     fileErr.File,
				Command:  fileErr.Log.Command,
				Args:     fileErr.Log.Args,
				ExitCode: fileErr.Log.ExitCode,
				Stdout:   fileErr.Log.Stdout,
				Stderr:   fileErr.Log.Stderr,
			})
		},
	}

	result, err := a.Batch.Run(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = a.Runs.Transition(domain.RunStatusCancelled)
			a.publishStatus(runID, domain.RunStatusCancelled,
				fmt.Sprintf("Run cancelled after %d of %d files", len(result.Converted), len(result.Files)))
			a.clearActiveRun(runID)
			return
		}

		_ = a.Runs.Transition(domain.RunStatusFailed)
		a.publishEvent(jobs.Event{
			RunID:   runID,
			Type:    jobs.EventTypeError,
			Status:  domain.RunStatusFailed,
			Message: err.Error(),
		})
		a.publishStatus(runID, domain.RunStatusFailed, "Run failed")
		a.clearActiveRun(runID)
		return
	}

	for _, warning := range result.DeleteFailures {
		a.publishEvent(jobs.Event{
			RunID:   runID,
			Type:    jobs.EventTypeError,
			Message: "delete source: " + warning,
		})
	}

	if err := a.Runs.Transition(domain.RunStatusDone); err == nil {
		a.publishStatus(runID, domain.RunStatusDone, "Run completed")
	}
	a.publishEvent(jobs.Event{
		RunID:     runID,
		Type:      jobs.EventTypeResult,
		Status:    domain.RunStatusDone,
		Message:   summarize(result),
		Total:     len(result.Files),
		Index:     len(result.Converted),
		OutputDir: cfg.OutputDir,
	})
	a.clearActiveRun(runID)
}

// summarize builds the human-readable completion message for a run.
func summarize(result convert.Result) string {
	msg := fmt.Sprintf("Converted %d of %d files", len(result.Converted), len(result.Files))
	if n := len(result.Failures); n > 0 {
		msg += fmt.Sprintf(", %d failed", n)
	}
	if n := len(result.Deleted); n > 0 {
		msg += fmt.Sprintf(", %d sources deleted", n)
	}
	return msg
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(runID string, status domain.RunStatus, message string) {
	a.publishEvent(jobs.Event{
		RunID:   runID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "run:event", published)
	}
}

// clearActiveRun clears cancellation handles for finished run IDs.
func (a *App) clearActiveRun(runID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeRunID == runID {
		a.activeRunID = ""
		a.cancel = nil
	}
}

// mapStageToStatus maps batch stage names to run statuses.
func mapStageToStatus(stage string) (domain.RunStatus, bool) {
	switch stage {
	case convert.StageDiscovering:
		return domain.RunStatusDiscovering, true
	case convert.StageConverting:
		return domain.RunStatusConverting, true
	case convert.StageCleaning:
		return domain.RunStatusCleaning, true
	default:
		return "", false
	}
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies defaults for empty choices.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.InputPath = strings.TrimSpace(settings.InputPath)
	settings.OutputPath = strings.TrimSpace(settings.OutputPath)
	settings.ExportFormat = strings.TrimSpace(settings.ExportFormat)
	settings.OCREngine = strings.TrimSpace(settings.OCREngine)
	settings.TableMode = strings.TrimSpace(settings.TableMode)

	defaults := config.DefaultSettings()
	if settings.ExportFormat == "" {
		settings.ExportFormat = defaults.ExportFormat
	}
	if settings.OCREngine == "" {
		settings.OCREngine = defaults.OCREngine
	}
	if settings.TableMode == "" {
		settings.TableMode = defaults.TableMode
	}
	if settings.Verbosity < 0 {
		settings.Verbosity = 0
	}
	if settings.Verbosity > 2 {
		settings.Verbosity = 2
	}
	return settings
}

// ensureLocalBinOnPATH prepends the user-local bin dir where pip installs
// docling, so LookPath and subprocess spawning find it from a GUI launch.
func ensureLocalBinOnPATH(homeDir string) error {
	binDir := filepath.Join(homeDir, ".local", "bin")

	current := os.Getenv("PATH")
	for _, entry := range filepath.SplitList(current) {
		if filepath.Clean(entry) == filepath.Clean(binDir) {
			return nil
		}
	}

	if current == "" {
		return os.Setenv("PATH", binDir)
	}
	return os.Setenv("PATH", binDir+string(os.PathListSeparator)+current)
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
