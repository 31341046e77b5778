package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"records-manager/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the record store and archive",
	Long:  `Checks the archive folder structure, the database schema and duplicate match keys.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			cmd.Help()
			return
		}
		runIntegrityChecks(cmdContext(cmd), true, true, true)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix the archive folder structure",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmdContext(cmd), true, false, false)
	},
}

// schemaCmd represents the integrity schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the record database schema",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmdContext(cmd), false, true, false)
	},
}

// duplicatesCmd represents the integrity duplicates command
var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Report records sharing a match key",
	Long:  `Lists stored records that share a match key value. Imports insert instead of merging into such records. Outputs counts by default or a JSON report with --json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		startTime := time.Now()
		jsonOutput, _ := cmd.Flags().GetBool("json")

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		svc := integrity.NewService(a.client, a.cfg.Storage.Bucket, a.logger, a.db, a.docs, 0)
		reports, err := svc.AllDuplicates(ctx, true)
		if err != nil {
			return fmt.Errorf("duplicate check failed: %w", err)
		}

		if jsonOutput {
			filename := fmt.Sprintf("integrity_duplicates_%d.json", time.Now().Unix())
			data, err := json.MarshalIndent(reports, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			if err := os.WriteFile(filename, data, 0644); err != nil {
				return fmt.Errorf("failed to save JSON file: %w", err)
			}
			a.logger.Info("Detailed JSON report saved", zap.String("file", filename))
		}

		fmt.Println("\n=== Duplicate Key Metrics ===")
		for _, r := range reports {
			fmt.Printf("%-20s records %6d  groups %4d\n", r.Kind, r.Records, len(r.Groups))
		}
		fmt.Printf("Execution Time: %s\n", elapsed(startTime))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(structureCmd, schemaCmd, duplicatesCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Fix missing folders")
	duplicatesCmd.Flags().Bool("json", false, "Save a detailed JSON report")
}

func runIntegrityChecks(ctx context.Context, runStructure, runSchema, runDuplicates bool) {
	a, err := bootstrap(ctx)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.close()
	logg := a.logger

	svc := integrity.NewService(a.client, a.cfg.Storage.Bucket, logg, a.db, a.docs, 0)
	onlyStructure := runStructure && !runSchema && !runDuplicates

	if runStructure {
		logg.Info("Checking archive structure...")
		missing, err := svc.CheckStructure(ctx)
		switch {
		case err != nil:
			logg.Error("Structure check failed", zap.Error(err))
		case len(missing) == 0:
			logg.Info("Structure is intact.")
		default:
			logg.Warn("Missing folders detected", zap.Strings("missing", missing))

			if onlyStructure && fixFlag {
				logg.Info("Fixing missing folders...")
				if err := svc.FixStructure(ctx, missing); err != nil {
					logg.Fatal("Failed to fix structure", zap.Error(err))
				}
				logg.Info("Structure fixed successfully.")
			} else if onlyStructure {
				logg.Info("Run with --fix to create missing folders.")
			}
		}
	}

	if runSchema {
		logg.Info("Checking database schema...")
		report, err := svc.CheckSchema()
		if err != nil {
			logg.Error("Schema check failed", zap.Error(err))
		} else if report.Matched {
			logg.Info("Schema matches the models.")
		} else {
			logg.Warn("Schema mismatches found")
			for table, tblReport := range report.Tables {
				if tblReport.Status == "ok" {
					continue
				}
				if tblReport.Status == "missing" {
					logg.Warn("Missing Table", zap.String("table", table))
				}
				if len(tblReport.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tblReport.MissingColumns))
				}
				if len(tblReport.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tblReport.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	if runDuplicates {
		logg.Info("Checking duplicate match keys...")
		reports, err := svc.AllDuplicates(ctx, true)
		if err != nil {
			logg.Error("Duplicate check failed", zap.Error(err))
			return
		}
		for _, r := range reports {
			if len(r.Groups) == 0 {
				continue
			}
			logg.Warn("Duplicate keys found", zap.String("kind", string(r.Kind)), zap.Int("groups", len(r.Groups)))
		}
	}
}
