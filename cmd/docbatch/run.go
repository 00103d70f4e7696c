package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docling-batch/internal/config"
	"docling-batch/internal/convert"
	"docling-batch/internal/discovery"
	"docling-batch/internal/domain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert every eligible document under the input folder",
	Long: `Run discovers eligible documents under the input folder, converts them
one at a time with docling, and writes output into a mirrored directory
tree under the output folder. Ctrl-C cancels cooperatively: the file being
converted finishes, remaining files are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := settingsFromViper()
		cfg, err := convert.ConfigFromSettings(settings)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		req := convert.Request{
			Config: cfg,
			OnProgress: func(index, total int, file discovery.File) {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", index, total, file.RelPath)
			},
			OnFileErr: func(fileErr *convert.FileError) {
				fmt.Fprintf(os.Stderr, "failed:  %v\n", fileErr)
			},
			OnLog: func(cmdLog convert.CommandLog) {
				if cfg.Verbosity == 0 {
					return
				}
				fmt.Fprintf(os.Stderr, "$ %s %s (exit %d)\n",
					cmdLog.Command, strings.Join(cmdLog.Args, " "), cmdLog.ExitCode)
				if cfg.Verbosity > 1 && cmdLog.Stderr != "" {
					fmt.Fprintln(os.Stderr, strings.TrimSpace(cmdLog.Stderr))
				}
			},
		}

		result, err := convert.NewBatch().Run(ctx, req)
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "cancelled after %d of %d files\n",
				len(result.Converted), len(result.Files))
			return nil
		}
		if err != nil {
			return err
		}

		for _, warning := range result.DeleteFailures {
			fmt.Fprintf(os.Stderr, "delete source: %s\n", warning)
		}
		fmt.Fprintf(os.Stderr, "\nBatch summary: %d converted, %d failed (total: %d)\n",
			len(result.Converted), len(result.Failures), len(result.Files))
		return nil
	},
}

func init() {
	// Flag defaults mirror the settings defaults: an unchanged pflag default
	// outranks viper.SetDefault in viper's precedence order.
	defaults := config.DefaultSettings()
	runCmd.Flags().String("input", defaults.InputPath, "input folder containing documents")
	runCmd.Flags().String("output", defaults.OutputPath, "output folder for converted documents")
	runCmd.Flags().String("to", defaults.ExportFormat, "export format: md, json, text, or doctags")
	runCmd.Flags().String("table-mode", defaults.TableMode, "table extraction mode: fast or accurate")
	runCmd.Flags().Bool("ocr", defaults.OCREnabled, "enable OCR for bitmap content")
	runCmd.Flags().Bool("force-ocr", defaults.ForceOCR, "force OCR over all text")
	runCmd.Flags().String("ocr-engine", defaults.OCREngine, "OCR engine name")
	runCmd.Flags().CountP("verbose", "v", "verbosity level (repeatable, max 2)")
	runCmd.Flags().Bool("delete-sources", defaults.DeleteSources, "delete source files after a fully successful run")

	bind := func(key, flag string) {
		if err := viper.BindPFlag(key, runCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	bind("input_path", "input")
	bind("output_path", "output")
	bind("export_format", "to")
	bind("table_mode", "table-mode")
	bind("ocr_enabled", "ocr")
	bind("force_ocr", "force-ocr")
	bind("ocr_engine", "ocr-engine")
	bind("verbosity", "verbose")
	bind("delete_pdfs", "delete-sources")

	rootCmd.AddCommand(runCmd)
}

// settingsFromViper materializes the layered configuration (settings file,
// DOCBATCH_* env, flags) into a settings value.
func settingsFromViper() domain.Settings {
	return domain.Settings{
		InputPath:     viper.GetString("input_path"),
		OutputPath:    viper.GetString("output_path"),
		ExportFormat:  viper.GetString("export_format"),
		OCREnabled:    viper.GetBool("ocr_enabled"),
		ForceOCR:      viper.GetBool("force_ocr"),
		OCREngine:     viper.GetString("ocr_engine"),
		TableMode:     viper.GetString("table_mode"),
		Verbosity:     viper.GetInt("verbosity"),
		DeleteSources: viper.GetBool("delete_pdfs"),
	}
}
