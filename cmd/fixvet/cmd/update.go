package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/releasetools/fixvet/internal/bulkupdate"
	"github.com/releasetools/fixvet/internal/jira"
	"github.com/releasetools/fixvet/internal/transport"
	"github.com/releasetools/fixvet/pkg/logging"
)

var (
	force        bool
	outputFile   string
	excludesFile string
)

// updateCmd performs a bulk fix-version update on the tracker.
var updateCmd = &cobra.Command{
	Use:   "update <source-version> <target-version> <jql-query>",
	Short: "Bulk-add a fix version to JIRA issues",
	Long: `Update queries JIRA with the given JQL and adds the target fix version
to every matching issue that carries the source version but does not
already carry the target.

Without --force nothing is written; each candidate change is printed so
the run can be reviewed first. With --output every change is recorded
to a file before the tracker write happens, so an interrupted run can
be inspected and resumed.

Issues listed in the --excludes file (one key per line, # comments
allowed) are skipped.`,
	Example: `  # Preview moving 3.0.0-alpha1 issues onto 2.8.0
  fixvet update 3.0.0-alpha1 2.8.0 \
    'project in (HADOOP, HDFS, MAPREDUCE, YARN) and fixVersion = "3.0.0-alpha1"'

  # Apply the changes, keeping a record
  fixvet update --force --output changes.log 3.0.0-alpha1 2.8.0 '...'`,
	Args: cobra.ExactArgs(3),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVarP(&force, "force", "f", false, "Perform the tracker writes (default is a dry run)")
	updateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "File recording each change before it is written")
	updateCmd.Flags().StringVarP(&excludesFile, "excludes", "e", "", "File listing issue keys to skip")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	source, target, query := args[0], args[1], args[2]
	ctx := cmd.Context()

	auth, err := transport.CredentialsFromEnv()
	if err != nil {
		logging.Error().Msg("JIRA credentials are required")
		return err
	}

	var excludes map[string]struct{}
	if excludesFile != "" {
		excludes, err = bulkupdate.LoadExcludes(excludesFile)
		if err != nil {
			logging.Err(err).Msg("Failed to load excludes file")
			return err
		}
	}

	var changelog *bulkupdate.Changelog
	if outputFile != "" {
		changelog, err = bulkupdate.OpenChangelog(outputFile)
		if err != nil {
			logging.Err(err).Msg("Failed to open changelog")
			return err
		}
		defer changelog.Close()
	} else if force {
		logging.Warn().Msg("Running with --force but no --output; changes will not be recorded")
	}

	if force && !confirmOnTTY(cmd, source, target) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	runner := &bulkupdate.Runner{
		Tracker: jira.NewClient(viper.GetString("jira.url"), transport.New(auth)),
		Log:     changelog,
		Force:   force,
	}

	results, err := runner.Run(ctx, source, target, query, excludes)
	if err != nil {
		logging.Err(err).Msg("Tracker query failed")
		return err
	}

	printSummary(cmd, results, force)
	return nil
}

// confirmOnTTY prompts before mutating the tracker when stdin is a
// terminal. Non-interactive runs proceed without a prompt.
func confirmOnTTY(cmd *cobra.Command, source, target string) bool {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"About to add fix version %s to issues carrying %s. Press Enter to continue, Ctrl-C to abort. ",
		target, source)
	_, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return err == nil
}

// printSummary writes the per-status counts and any per-issue failures.
func printSummary(cmd *cobra.Command, results []bulkupdate.Result, force bool) {
	out := cmd.OutOrStdout()

	counts := make(map[bulkupdate.Status]int)
	for _, res := range results {
		counts[res.Status]++
	}

	fmt.Fprintf(out, "Issues examined: %d\n", len(results))
	if force {
		fmt.Fprintf(out, "Updated:         %d\n", counts[bulkupdate.StatusUpdated])
	} else {
		fmt.Fprintf(out, "Would update:    %d (dry run, use --force to apply)\n", counts[bulkupdate.StatusDryRun])
	}
	fmt.Fprintf(out, "Skipped:         %d\n", counts[bulkupdate.StatusSkipped])
	fmt.Fprintf(out, "Failed:          %d\n", counts[bulkupdate.StatusFailed])

	if counts[bulkupdate.StatusFailed] > 0 {
		fmt.Fprintf(out, "\nFailures:\n")
		for _, res := range results {
			if res.Status == bulkupdate.StatusFailed {
				fmt.Fprintf(out, "  %-16s %s\n", res.Key, res.Reason)
			}
		}
	}
}
