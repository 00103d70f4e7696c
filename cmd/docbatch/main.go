// Package main is the headless batch front-end. It drives the same
// discovery/convert pipeline as the desktop app from flags, environment,
// and the shared settings file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docling-batch/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the docbatch CLI.
var rootCmd = &cobra.Command{
	Use:   "docbatch",
	Short: "Batch-convert documents to Markdown/JSON/text with docling",
	Long: `docbatch converts every eligible document (pdf, docx, pptx, html, xlsx,
md, txt) under an input folder by invoking the docling CLI once per file,
mirroring the input folder structure in the output tree.

Options are layered: the shared GUI settings file provides defaults,
DOCBATCH_* environment variables override it, and flags override both.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "settings file (default: the GUI settings file)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("json")

	defaults := config.DefaultSettings()
	viper.SetDefault("input_path", defaults.InputPath)
	viper.SetDefault("output_path", defaults.OutputPath)
	viper.SetDefault("export_format", defaults.ExportFormat)
	viper.SetDefault("ocr_enabled", defaults.OCREnabled)
	viper.SetDefault("force_ocr", defaults.ForceOCR)
	viper.SetDefault("ocr_engine", defaults.OCREngine)
	viper.SetDefault("table_mode", defaults.TableMode)
	viper.SetDefault("verbosity", defaults.Verbosity)
	viper.SetDefault("delete_pdfs", defaults.DeleteSources)

	viper.SetEnvPrefix("DOCBATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using settings file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
