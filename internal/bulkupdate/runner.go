// Package bulkupdate implements the bulk fix-version update flow: query
// the tracker, pick the issues carrying the source version but not the
// target, and add the target version to each. Dry-run is the default;
// mutations are best-effort, per-issue failures are logged and skipped.
package bulkupdate

import (
	"context"
	"strings"

	"github.com/releasetools/fixvet/internal/jira"
	"github.com/releasetools/fixvet/pkg/logging"
)

// Tracker is the issue-tracker surface the update flow needs.
type Tracker interface {
	Search(ctx context.Context, jql string) ([]jira.Issue, error)
	UpdateFixVersions(ctx context.Context, key string, versions []string) error
}

// Status classifies the outcome for one issue.
type Status string

// Status values.
const (
	StatusUpdated Status = "updated"
	StatusDryRun  Status = "dry-run"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the outcome of processing a single issue.
type Result struct {
	Key         string
	Status      Status
	Reason      string
	OldVersions []string
	NewVersions []string
}

// Runner executes one bulk update.
type Runner struct {
	// Tracker is the issue tracker client.
	Tracker Tracker

	// Log receives a record of every candidate change before the write.
	// Optional.
	Log *Changelog

	// Force performs the tracker writes. Without it the run is a dry run.
	Force bool
}

// Run queries the tracker and adds the target fix version to every
// matching issue that carries the source version but not the target.
// The query failure is fatal; individual mutation failures are not.
func (r *Runner) Run(ctx context.Context, source, target, query string, excludes map[string]struct{}) ([]Result, error) {
	issues, err := r.Tracker.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(issues))
	for _, issue := range issues {
		results = append(results, r.processIssue(ctx, issue, source, target, excludes))
	}
	return results, nil
}

func (r *Runner) processIssue(ctx context.Context, issue jira.Issue, source, target string, excludes map[string]struct{}) Result {
	res := Result{Key: issue.Key, OldVersions: issue.FixVersionNames()}

	if _, excluded := excludes[strings.ToUpper(issue.Key)]; excluded {
		logging.Debug().Str("issue", issue.Key).Msg("Issue is excluded, skipping")
		res.Status = StatusSkipped
		res.Reason = "excluded"
		return res
	}
	if !issue.HasFixVersion(source) {
		res.Status = StatusSkipped
		res.Reason = "does not carry fix version " + source
		return res
	}
	if issue.HasFixVersion(target) {
		res.Status = StatusSkipped
		res.Reason = "already carries fix version " + target
		return res
	}

	res.NewVersions = append(append([]string{}, res.OldVersions...), target)

	logging.Info().
		Str("issue", issue.Key).
		Strs("old", res.OldVersions).
		Strs("new", res.NewVersions).
		Msg("Fix version change")

	// The changelog entry lands before the write so an interrupted run
	// can be resumed. A log failure aborts the issue, not the batch.
	if r.Log != nil {
		if err := r.Log.Record(issue.Key, res.OldVersions, res.NewVersions); err != nil {
			logging.Err(err).Str("issue", issue.Key).Msg("Failed to record change, skipping issue")
			res.Status = StatusFailed
			res.Reason = err.Error()
			return res
		}
	}

	if !r.Force {
		res.Status = StatusDryRun
		return res
	}

	if err := r.Tracker.UpdateFixVersions(ctx, issue.Key, res.NewVersions); err != nil {
		logging.Err(err).Str("issue", issue.Key).Msg("Failed to update issue, continuing")
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}

	res.Status = StatusUpdated
	return res
}
