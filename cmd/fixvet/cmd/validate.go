package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/releasetools/fixvet/internal/gitlog"
	"github.com/releasetools/fixvet/internal/jira"
	"github.com/releasetools/fixvet/internal/transport"
	"github.com/releasetools/fixvet/pkg/errors"
	"github.com/releasetools/fixvet/pkg/logging"
	"github.com/releasetools/fixvet/pkg/overlay"
	"github.com/releasetools/fixvet/pkg/reconcile"
)

var (
	sourceDir     string
	metadataFile  string
	fixupFile     string
	whitelistFile string
	startRef      string
	endRef        string
)

// validateCmd reconciles a release branch against the tracker.
var validateCmd = &cobra.Command{
	Use:   "validate <fix-version> <branch>",
	Short: "Cross-check branch commits against JIRA fix versions",
	Long: `Validate walks the commits on a release branch and cross-references
them with the issues JIRA marks as fixed for the given version.

The commit range is start-ref..end-ref. The start ref comes from the
metadata overlay (or --start-ref); the end ref defaults to the branch
argument. The overlay also carries manual hash-to-issue fixups and
commit/issue ignore lists.

Exits non-zero when any commit or issue is left unmatched, or when a
revert's fix-version bookkeeping looks inconsistent.`,
	Example: `  # Validate branch-2.8.0 against fix version 2.8.0
  fixvet validate 2.8.0 origin/branch-2.8.0

  # With a metadata overlay and an explicit repository
  fixvet validate --source-dir ~/src/hadoop --metadata 2.8.0.yaml 2.8.0 origin/branch-2.8.0`,
	Args: cobra.ExactArgs(2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&sourceDir, "source-dir", "", "Path to the git repository (default is the working directory)")
	validateCmd.Flags().StringVar(&metadataFile, "metadata", "", "YAML metadata overlay with refs, fixups and ignore lists")
	validateCmd.Flags().StringVar(&fixupFile, "fixup-commits", "", "Legacy JSON fixups file (deprecated, use --metadata)")
	validateCmd.Flags().StringVar(&whitelistFile, "whitelist-jiras", "", "Legacy JSON issue whitelist file (deprecated, use --metadata)")
	validateCmd.Flags().StringVar(&startRef, "start-ref", "", "Override the overlay's start ref")
	validateCmd.Flags().StringVar(&endRef, "end-ref", "", "Override the end ref (default is the branch argument)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	fixVersion, branch := args[0], args[1]
	ctx := cmd.Context()

	auth, err := transport.CredentialsFromEnv()
	if err != nil {
		logging.Error().Msg("JIRA credentials are required")
		return err
	}

	ov, err := loadOverlay(branch)
	if err != nil {
		logging.Err(err).Msg("Failed to load metadata overlay")
		return err
	}

	dir := sourceDir
	if dir == "" {
		dir = "."
	}
	repo, err := gitlog.Open(dir)
	if err != nil {
		logging.Err(err).Str("dir", dir).Msg("Failed to open git repository")
		return err
	}

	logging.Info().
		Str("start_ref", ov.StartRef).
		Str("end_ref", ov.EndRef).
		Msg("Walking commit range")
	commits, err := repo.CommitsBetween(ov.StartRef, ov.EndRef)
	if err != nil {
		logging.Err(err).Msg("Failed to walk commit range")
		return err
	}

	client := jira.NewClient(viper.GetString("jira.url"), transport.New(auth))
	jql := jira.FixedInVersionJQL(projects(), fixVersion)
	logging.Info().Str("jql", jql).Msg("Querying tracker")
	found, err := client.Search(ctx, jql)
	if err != nil {
		logging.Err(err).Msg("Tracker query failed")
		return err
	}

	reconciler, err := reconcile.New(reconcile.WithProjects(projects()...))
	if err != nil {
		return err
	}
	report, err := reconciler.Run(commits, jira.Records(found), ov)
	if err != nil {
		return err
	}

	printReport(cmd, report, fixVersion)

	if !report.Clean() {
		return errors.New("validation found inconsistencies")
	}
	return nil
}

// loadOverlay assembles the correction overlay from the metadata file,
// the legacy two-file inputs, and the flag overrides, then validates it.
func loadOverlay(branch string) (*overlay.Overlay, error) {
	ov := overlay.Empty()

	if metadataFile != "" {
		loaded, err := overlay.Load(metadataFile)
		if err != nil {
			return nil, err
		}
		ov = loaded
	}

	if fixupFile != "" || whitelistFile != "" {
		logging.Warn().Msg("--fixup-commits and --whitelist-jiras are deprecated, use --metadata")
		legacy, err := overlay.LoadLegacy(fixupFile, whitelistFile)
		if err != nil {
			return nil, err
		}
		ov.Merge(legacy)
	}

	if startRef != "" {
		ov.StartRef = startRef
	}
	if endRef != "" {
		ov.EndRef = endRef
	}
	if ov.EndRef == "" {
		ov.EndRef = branch
	}

	if err := ov.Validate(); err != nil {
		return nil, err
	}
	return ov, nil
}

// printReport writes the human-readable reconciliation outcome.
func printReport(cmd *cobra.Command, report *reconcile.Report, fixVersion string) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Fix version:         %s\n", fixVersion)
	fmt.Fprintf(out, "Matched commits:     %d\n", report.MatchedCommits)
	fmt.Fprintf(out, "Matched issues:      %d\n", report.MatchedIssues)
	fmt.Fprintf(out, "Skipped commits:     %d\n", report.SkippedCommits)
	fmt.Fprintf(out, "Unmatched commits:   %d\n", len(report.UnmatchedCommits))
	fmt.Fprintf(out, "Unmatched issues:    %d\n", len(report.UnmatchedIssues))
	fmt.Fprintf(out, "Revert findings:     %d\n", len(report.InconsistentReverts))

	if len(report.UnmatchedCommits) > 0 {
		fmt.Fprintf(out, "\nCommits with no fixed issue behind them:\n")
		for _, c := range report.UnmatchedCommits {
			key := c.IssueKey
			if key == "" {
				key = "(no key)"
			}
			fmt.Fprintf(out, "  %s %-16s %s\n", shortHash(c.Hash), key, c.Subject)
		}
	}

	if len(report.UnmatchedIssues) > 0 {
		fmt.Fprintf(out, "\nIssues marked fixed with no commit behind them:\n")
		for _, is := range report.UnmatchedIssues {
			fmt.Fprintf(out, "  %-16s %s\n", is.Key, is.Summary)
		}
	}

	if len(report.InconsistentReverts) > 0 {
		fmt.Fprintf(out, "\nInconsistent reverts:\n")
		for _, f := range report.InconsistentReverts {
			key := f.IssueKey
			if key == "" {
				key = "(no key)"
			}
			fmt.Fprintf(out, "  %s %-16s %s\n", shortHash(f.Revert.Hash), key, f.Reason)
		}
	}

	if report.Clean() {
		fmt.Fprintf(out, "\nAll commits and issues reconciled.\n")
	} else {
		fmt.Fprintf(os.Stderr, "\nValidation failed for fix version %s.\n", fixVersion)
	}
}

// shortHash abbreviates a commit hash for display.
func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return strings.TrimSpace(hash)
}
