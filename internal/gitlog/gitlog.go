// Package gitlog walks git history and produces the commit records the
// reconciler consumes. A commit range start..end yields the commits
// reachable from end but not from start, newest first.
package gitlog

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/releasetools/fixvet/pkg/errors"
	"github.com/releasetools/fixvet/pkg/reconcile"
)

// Repo wraps a git repository for commit range queries.
type Repo struct {
	repo *git.Repository
}

// Open opens the repository at the given path.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	return &Repo{repo: repo}, nil
}

// New wraps an already opened repository.
func New(repo *git.Repository) *Repo {
	return &Repo{repo: repo}
}

// RefNotFoundError indicates a revision that could not be resolved.
type RefNotFoundError struct {
	Ref string
}

// Error implements the error interface.
func (e *RefNotFoundError) Error() string {
	return "git ref not found: " + e.Ref
}

// Is implements errors.Is support.
func (e *RefNotFoundError) Is(target error) bool {
	return target == errors.ErrNotFound
}

// CommitsBetween returns the commits in startRef..endRef: reachable from
// endRef but not from startRef, newest first. An empty endRef means HEAD.
func (r *Repo) CommitsBetween(startRef, endRef string) ([]reconcile.Commit, error) {
	if endRef == "" {
		endRef = "HEAD"
	}

	startHash, err := r.repo.ResolveRevision(plumbing.Revision(startRef))
	if err != nil {
		return nil, &RefNotFoundError{Ref: startRef}
	}
	endHash, err := r.repo.ResolveRevision(plumbing.Revision(endRef))
	if err != nil {
		return nil, &RefNotFoundError{Ref: endRef}
	}

	// Build the set of commits reachable from the start ref.
	baseCommits := make(map[plumbing.Hash]bool)
	baseIter, err := r.repo.Log(&git.LogOptions{From: *startHash})
	if err != nil {
		return nil, errors.WrapIO("read", "git log "+startRef, err)
	}
	err = baseIter.ForEach(func(c *object.Commit) error {
		baseCommits[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO("read", "git log "+startRef, err)
	}

	endIter, err := r.repo.Log(&git.LogOptions{From: *endHash})
	if err != nil {
		return nil, errors.WrapIO("read", "git log "+endRef, err)
	}

	var commits []reconcile.Commit
	seen := make(map[plumbing.Hash]bool)
	err = endIter.ForEach(func(c *object.Commit) error {
		// Merge commits have multiple parents, so keep traversing even
		// past commits reachable from the base.
		if seen[c.Hash] || baseCommits[c.Hash] {
			return nil
		}
		seen[c.Hash] = true

		commits = append(commits, reconcile.Commit{
			Hash:    c.Hash.String(),
			Subject: subject(c.Message),
			Message: c.Message,
		})
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO("read", "git log "+endRef, err)
	}

	return commits, nil
}

// subject returns the first line of a commit message.
func subject(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimRight(message[:i], "\r")
	}
	return message
}
