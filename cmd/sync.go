package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"records-manager/core/session"
	"records-manager/feature/research"
	"records-manager/feature/research/scopus"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync research command
	syncSearch scopus.Search
	syncActor  string
	dryRunSync bool
	yesConfirm bool
)

// syncCmd is the parent command for sync operations.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize records with external sources",
}

// researchSyncCmd pulls every Scopus result of a search into the research collection.
var researchSyncCmd = &cobra.Command{
	Use:   "research",
	Short: "Sync research records from Scopus (report + optionally commit)",
	Long: `Searches Scopus, reports how many results would be fetched, and after
confirmation reconciles every page against the research collection.

Known publications are updated, new ones inserted. Progress is logged as it runs.

Examples:
  # Preview the affiliation's 2024 publications
  sync research --year 2024 --dry-run

  # Sync one author without prompting
  sync research --author 57190000000 --yes

  # Free query
  sync research --query 'TITLE-ABS-KEY(canine)' --year all`,
	RunE: runResearchSync,
}

// autoSyncCmd adds the Scopus publications of every student or advisor.
var autoSyncCmd = &cobra.Command{
	Use:   "scopus <students|advisors>",
	Short: "Add each person's Scopus publications to the academic collection",
	Long: `Searches Scopus once per student or advisor, by Scopus author id when known,
otherwise by English name within the university, and adds publications the
person does not have yet. People without either are skipped.

Examples:
  sync scopus advisors
  sync scopus students --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runAutoSync,
}

func init() {
	syncCmd.AddCommand(researchSyncCmd, autoSyncCmd)

	researchSyncCmd.Flags().StringVar(&syncSearch.AuthorID, "author", "", "Scopus author id")
	researchSyncCmd.Flags().StringVar(&syncSearch.Query, "query", "", "Free Scopus query (ignored with --author)")
	researchSyncCmd.Flags().StringVar(&syncSearch.Affiliation, "affiliation", "", "\"vet\", an affiliation id, or empty for the configured default")
	researchSyncCmd.Flags().StringVar(&syncSearch.Year, "year", "", "Publication year or \"all\"")
	researchSyncCmd.Flags().StringVar(&syncActor, "actor", "", "Actor recorded in the audit log")
	researchSyncCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Report only, never commit")
	researchSyncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")

	autoSyncCmd.Flags().StringVar(&syncActor, "actor", "", "Actor recorded in the audit log")
	autoSyncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runResearchSync(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	start := time.Now()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	l := a.logger

	// Step 1: Preview (always runs)
	l.Info("Searching Scopus...")
	preview, err := a.research.Search(ctx, research.SearchRequest{Search: syncSearch})
	if err != nil {
		return fmt.Errorf("failed to search: %w", err)
	}
	known := 0
	for _, item := range preview.Items {
		if item.Status == research.StatusDuplicate {
			known++
		}
	}
	l.Info("Sync preview",
		zap.Int("total", preview.Total),
		zap.Bool("truncated", preview.Truncated),
		zap.Int("first_page_known", known),
		zap.Int("first_page_size", len(preview.Items)),
	)

	if preview.Total == 0 {
		l.Info("Nothing to sync.")
		return nil
	}
	if dryRunSync {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if !confirmAction(fmt.Sprintf("Sync %d Scopus results", preview.Total)) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	// Step 2: Run
	total := preview.Total
	out, err := a.research.Sync(ctx, a.actor(syncActor), research.SyncRequest{Search: syncSearch, ExpectedTotal: &total})
	if out != nil {
		printSessionLog(out.Session)
	}
	if err != nil {
		if out != nil && out.DiagnosticKey != "" {
			l.Error("Diagnostics archived", zap.String("key", out.DiagnosticKey))
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	fields := []zap.Field{
		zap.Int("new", out.Plan.New),
		zap.Int("update", out.Plan.Updated),
		zap.Int("rejected", out.Plan.Rejected),
		zap.String("execution_time", elapsed(start)),
	}
	if out.Commit != nil {
		fields = append(fields, zap.Int("written", out.Commit.Applied()))
	}
	l.Info("Sync completed", fields...)
	return nil
}

func runAutoSync(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	start := time.Now()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !confirmAction(fmt.Sprintf("Search Scopus for the publications of all %s", args[0])) {
		a.logger.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	out, err := a.academic.AutoSync(ctx, a.actor(syncActor), args[0])
	if out != nil {
		printSessionLog(out.Session)
	}
	if err != nil {
		if out != nil && out.DiagnosticKey != "" {
			a.logger.Error("Diagnostics archived", zap.String("key", out.DiagnosticKey))
		}
		return fmt.Errorf("auto-sync failed: %w", err)
	}

	fmt.Println()
	for _, line := range out.Lines {
		fmt.Println(line)
	}
	a.logger.Info("Auto-sync completed", zap.String("session_id", out.SessionID), zap.String("execution_time", elapsed(start)))
	return nil
}

// printSessionLog writes a finished session's log lines to stdout.
func printSessionLog(s *session.Session) {
	if s == nil {
		return
	}
	fmt.Println()
	for _, e := range s.Events() {
		fmt.Printf("[%3d%%] %-5s %s\n", e.Percent, e.Level, e.Message)
	}
}

// confirmAction asks the operator to type 'yes' unless --yes was given.
func confirmAction(what string) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  %s? Type 'yes' to confirm: ", what)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
