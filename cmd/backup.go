package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"records-manager/feature/academic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportFormat string
	exportOut    string
	useArchive   bool
	restoreActor string
)

// exportCmd writes a backup of the academic collections.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the academic collections as a JSON backup or Excel workbook",
	Long: `Writes every live student, publication, progress and advisor record.

Examples:
  export --format json
  export --format xlsx --out ./backups
  export --archive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		actor := a.actor(restoreActor)
		if useArchive {
			key, err := a.academic.ArchiveExport(ctx, actor, exportFormat)
			if err != nil {
				return fmt.Errorf("failed to archive backup: %w", err)
			}
			a.logger.Info("Backup archived", zap.String("key", key))
			return nil
		}

		file, err := a.academic.Export(ctx, actor, exportFormat)
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(exportOut, file.Name)
		if err := os.WriteFile(path, file.Body, 0o644); err != nil {
			return fmt.Errorf("failed to save backup: %w", err)
		}
		a.logger.Info("Backup saved", zap.String("file", path), zap.Int("bytes", len(file.Body)))
		return nil
	},
}

// restoreCmd merges a backup file into the academic collections.
var restoreCmd = &cobra.Command{
	Use:   "restore <file|archive-key>",
	Short: "Restore a JSON backup or Excel workbook",
	Long: `Reconciles a backup against the stored records and writes the result.
Nothing is cleared first: known records are updated or skipped by the usual
identity rules and unknown ones inserted.

Examples:
  restore backup_2025-01-31.json
  restore students.xlsx --yes
  restore backups/backup_2025-01-31.json --archive`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		start := time.Now()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if !confirmAction(fmt.Sprintf("Restore %s into the academic collections", args[0])) {
			a.logger.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		var out *academic.RestoreOutcome
		if useArchive {
			out, err = a.academic.RestoreArchived(ctx, a.actor(restoreActor), args[0])
		} else {
			body, readErr := os.ReadFile(args[0])
			if readErr != nil {
				return fmt.Errorf("failed to read backup: %w", readErr)
			}
			out, err = a.academic.Restore(ctx, a.actor(restoreActor), academic.RestoreFile{Name: filepath.Base(args[0]), Body: body})
		}
		if out != nil {
			printSessionLog(out.Session)
			for _, w := range out.Warnings {
				a.logger.Warn("Restore warning", zap.String("warning", w))
			}
		}
		if err != nil {
			if out != nil && out.DiagnosticKey != "" {
				a.logger.Error("Diagnostics archived", zap.String("key", out.DiagnosticKey))
			}
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Println()
		for _, line := range out.Lines {
			fmt.Println(line)
		}
		a.logger.Info("Restore completed", zap.String("session_id", out.SessionID), zap.String("execution_time", elapsed(start)))
		return nil
	},
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Backup format: json or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Output directory")
	exportCmd.Flags().BoolVar(&useArchive, "archive", false, "Write to object storage instead of a local file")
	exportCmd.Flags().StringVar(&restoreActor, "actor", "", "Actor recorded in the audit log")

	restoreCmd.Flags().BoolVar(&useArchive, "archive", false, "Read the backup from object storage")
	restoreCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	restoreCmd.Flags().StringVar(&restoreActor, "actor", "", "Actor recorded in the audit log")

	RootCmd.AddCommand(exportCmd, restoreCmd)
}
