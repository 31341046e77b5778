package cmd

import (
	"fmt"
	"os"

	"records-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "records-manager",
	Short: "Graduate records reconciliation service",
	Long: `Records Manager keeps the graduate school's student, publication, progress,
advisor and research collections in step with Scopus, JSON backups and Excel workbooks.
Every import is reconciled against the stored records and written in audited chunks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure. Errors are
// printed through a console logger since configuration may not have loaded.
func Execute() {
	err := RootCmd.Execute()
	if err == nil {
		return
	}
	l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l.Error("command failed", zap.Error(err))
	_ = l.Sync()
	os.Exit(1)
}
