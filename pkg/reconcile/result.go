package reconcile

// Commit is one git log entry in the range under validation.
// Records are immutable once parsed; the reconciler works on copies.
type Commit struct {
	// Hash is the full commit hash. Abbreviations are tolerated when
	// matching, but sources should supply the full 40 characters.
	Hash string

	// Subject is the first line of the commit message.
	Subject string

	// Message is the full commit message.
	Message string

	// IssueKey is the resolved issue key, if any. Sources may leave it
	// empty; the reconciler fills it from fixups or the message.
	IssueKey string
}

// Issue is one tracker issue carrying the target fix version.
type Issue struct {
	// Key is the canonical issue key, e.g. HADOOP-1234.
	Key string

	// Summary is the issue title.
	Summary string

	// FixVersions are the release versions the issue is marked fixed in.
	FixVersions []string
}

// RevertFinding records a revert whose fix-version bookkeeping looks
// inconsistent. Findings are report entries, not errors.
type RevertFinding struct {
	// Revert is the commit carrying the revert marker.
	Revert Commit

	// Reverted is the commit the revert undoes. Zero-valued when the
	// referenced hash was not found in the walked range.
	Reverted Commit

	// IssueKey is the issue the reverted commit resolved, if known.
	IssueKey string

	// Reason describes why the revert was flagged.
	Reason string
}

// Report is the outcome of one reconciliation run.
type Report struct {
	// UnmatchedCommits are commits with no fixed issue behind them,
	// in input order.
	UnmatchedCommits []Commit

	// UnmatchedIssues are issues marked fixed with no commit behind them,
	// in input order.
	UnmatchedIssues []Issue

	// InconsistentReverts are best-effort revert findings, in input order
	// of the reverting commit.
	InconsistentReverts []RevertFinding

	// MatchedCommits counts commits that resolved to a fixed issue.
	MatchedCommits int

	// MatchedIssues counts issues with at least one resolving commit.
	MatchedIssues int

	// SkippedCommits counts commits dropped before matching: merge
	// commits, ignored hashes, and both sides of revert pairs.
	SkippedCommits int
}

// Clean reports whether the reconciliation found nothing to complain about.
func (r *Report) Clean() bool {
	return len(r.UnmatchedCommits) == 0 &&
		len(r.UnmatchedIssues) == 0 &&
		len(r.InconsistentReverts) == 0
}
