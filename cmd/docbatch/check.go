package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docling-batch/internal/diagnostics"
	"docling-batch/internal/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify docling and the configured folders are usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		report := diagnostics.NewChecker().Run(settingsFromViper())

		for _, item := range report.Items {
			marker := "ok  "
			if item.Status == domain.DiagnosticStatusFail {
				marker = "FAIL"
			}
			fmt.Fprintf(os.Stdout, "%s %-18s %s\n", marker, item.Name, item.Message)
			if item.Hint != "" && item.Status == domain.DiagnosticStatusFail {
				fmt.Fprintf(os.Stdout, "     hint: %s\n", item.Hint)
			}
		}

		if report.HasFailures {
			return fmt.Errorf("diagnostics reported failures")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
