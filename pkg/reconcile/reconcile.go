// Package reconcile cross-references git commit history against issue
// tracker fix-version metadata. Given the commits on a release branch and
// the issues marked fixed for the corresponding version, it reports
// commits with no fixed issue behind them, issues with no commit behind
// them, and reverts whose bookkeeping looks inconsistent.
//
// Reconciliation is pure: no I/O, no clock, no randomness. Running it
// twice over the same inputs yields the same report.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/releasetools/fixvet/pkg/errors"
	"github.com/releasetools/fixvet/pkg/overlay"
)

// DefaultProjects are the Hadoop umbrella project keys recognized in
// commit messages when no explicit pattern is configured.
var DefaultProjects = []string{"HADOOP", "HDFS", "MAPREDUCE", "YARN"}

// Reconciler matches commits to issues under a correction overlay.
type Reconciler struct {
	keyPattern *regexp.Regexp
}

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithKeyPattern sets the regular expression used to extract issue keys
// from commit subjects.
func WithKeyPattern(pattern string) Option {
	return func(r *Reconciler) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return &errors.ValidationError{
				Field:   "key_pattern",
				Value:   pattern,
				Message: err.Error(),
			}
		}
		r.keyPattern = re
		return nil
	}
}

// WithProjects builds the key pattern from a list of project keys,
// e.g. HADOOP, HDFS.
func WithProjects(projects ...string) Option {
	return func(r *Reconciler) error {
		if len(projects) == 0 {
			return &errors.ValidationError{
				Field:   "projects",
				Message: "at least one project key is required",
			}
		}
		quoted := make([]string, len(projects))
		for i, p := range projects {
			quoted[i] = regexp.QuoteMeta(strings.ToUpper(p))
		}
		return WithKeyPattern("(" + strings.Join(quoted, "|") + ")-[0-9]+")(r)
	}
}

// New creates a Reconciler. Without options it recognizes the default
// Hadoop project keys.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.keyPattern == nil {
		if err := WithProjects(DefaultProjects...)(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// poolEntry is a commit still participating in matching, with its
// resolved issue key and revert metadata.
type poolEntry struct {
	commit  Commit
	key     string
	target  string // hash referenced by "This reverts commit ..."
	revert  bool
	removed bool
}

// Run reconciles commits against issues under the given overlay.
// A nil overlay behaves as an empty one; a non-nil overlay without a
// start ref fails with ErrMalformedOverlay.
func (r *Reconciler) Run(commits []Commit, issues []Issue, ov *overlay.Overlay) (*Report, error) {
	if ov == nil {
		ov = overlay.Empty()
	} else if ov.StartRef == "" {
		return nil, errors.ErrMalformedOverlay
	}

	report := &Report{}

	// Resolve keys and drop merge commits and ignored hashes up front.
	pool := make([]*poolEntry, 0, len(commits))
	for _, c := range commits {
		if isMergeCommit(c.Subject) {
			report.SkippedCommits++
			continue
		}
		if ov.IgnoresCommit(c.Hash) {
			report.SkippedCommits++
			continue
		}
		target, isRevert := revertTarget(c.Message)
		if !isRevert {
			isRevert = isRevertSubject(c.Subject)
		}
		pool = append(pool, &poolEntry{
			commit: c,
			key:    r.resolveKey(c, ov),
			target: target,
			revert: isRevert,
		})
	}

	// Pair reverts with the commits they undo. Both sides leave the
	// matching pool; ambiguous references become findings.
	type revertCandidate struct {
		revert   Commit
		reverted Commit
		key      string
		reason   string // set when the finding is already decided
	}
	var candidates []revertCandidate
	for _, e := range pool {
		if !e.revert {
			continue
		}
		reverted := findReverted(pool, e)
		if reverted == nil {
			if !e.removed {
				e.removed = true
				report.SkippedCommits++
			}
			candidates = append(candidates, revertCandidate{
				revert: e.commit,
				key:    e.key,
				reason: "revert references no commit in the walked range",
			})
			continue
		}
		key := reverted.key
		if key == "" {
			key = e.key
		}
		for _, side := range []*poolEntry{e, reverted} {
			if !side.removed {
				side.removed = true
				report.SkippedCommits++
			}
		}
		candidates = append(candidates, revertCandidate{
			revert:   e.commit,
			reverted: reverted.commit,
			key:      key,
		})
	}

	// Index issues, dropping whitelisted ones entirely.
	issueByKey := make(map[string]struct{})
	kept := make([]Issue, 0, len(issues))
	for _, is := range issues {
		if ov.IgnoresIssue(is.Key) {
			continue
		}
		issueByKey[strings.ToUpper(is.Key)] = struct{}{}
		kept = append(kept, is)
	}

	// Partition surviving commits.
	resolvedCount := make(map[string]int)
	for _, e := range pool {
		if e.removed {
			continue
		}
		if e.key == "" {
			report.UnmatchedCommits = append(report.UnmatchedCommits, e.commit)
			continue
		}
		resolvedCount[e.key]++
		if _, ok := issueByKey[e.key]; ok {
			report.MatchedCommits++
		} else {
			c := e.commit
			c.IssueKey = e.key
			report.UnmatchedCommits = append(report.UnmatchedCommits, c)
		}
	}

	// Partition issues.
	for _, is := range kept {
		if resolvedCount[strings.ToUpper(is.Key)] > 0 {
			report.MatchedIssues++
		} else {
			report.UnmatchedIssues = append(report.UnmatchedIssues, is)
		}
	}

	// Revert consistency: an issue still marked fixed whose only
	// implementing commits were reverted is a finding, as is any revert
	// we could not pair. Ambiguity is reported, never silently resolved.
	for _, cand := range candidates {
		if cand.reason != "" {
			report.InconsistentReverts = append(report.InconsistentReverts, RevertFinding{
				Revert:   cand.revert,
				Reverted: cand.reverted,
				IssueKey: cand.key,
				Reason:   cand.reason,
			})
			continue
		}
		if cand.key == "" || ov.IgnoresIssue(cand.key) {
			continue
		}
		_, fixed := issueByKey[cand.key]
		if fixed && resolvedCount[cand.key] == 0 {
			report.InconsistentReverts = append(report.InconsistentReverts, RevertFinding{
				Revert:   cand.revert,
				Reverted: cand.reverted,
				IssueKey: cand.key,
				Reason:   "issue is marked fixed but its commit was reverted without a re-landing commit",
			})
		}
	}

	return report, nil
}

// resolveKey determines the issue key for a commit: fixup overlay first,
// then any key the source already attached, then the commit subject.
func (r *Reconciler) resolveKey(c Commit, ov *overlay.Overlay) string {
	if key, ok := ov.IssueFor(c.Hash); ok {
		return strings.ToUpper(key)
	}
	if c.IssueKey != "" {
		return strings.ToUpper(c.IssueKey)
	}
	return r.extractKey(c.Subject)
}

// extractKey pulls an issue key from a commit subject. Hadoop commit
// convention leads with the key ("HADOOP-1234. Fix ..."), so only a
// leading match counts; revert subjects are matched inside the quotes.
func (r *Reconciler) extractKey(subject string) string {
	if loc := r.keyPattern.FindStringIndex(subject); loc != nil && loc[0] == 0 {
		return subject[loc[0]:loc[1]]
	}
	if rest, ok := strings.CutPrefix(subject, revertSubjectPrefix); ok {
		if loc := r.keyPattern.FindStringIndex(rest); loc != nil && loc[0] == 0 {
			return rest[loc[0]:loc[1]]
		}
	}
	return ""
}

// findReverted locates the pool entry a revert undoes: by hash when the
// revert body names one, otherwise by issue key.
func findReverted(pool []*poolEntry, rev *poolEntry) *poolEntry {
	if rev.target != "" {
		for _, e := range pool {
			if e == rev {
				continue
			}
			if hashMatch(e.commit.Hash, rev.target) {
				return e
			}
		}
		return nil
	}
	for _, e := range pool {
		if e == rev || e.revert || e.key == "" {
			continue
		}
		if e.key == rev.key {
			return e
		}
	}
	return nil
}
