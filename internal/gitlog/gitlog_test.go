package gitlog_test

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releasetools/fixvet/internal/gitlog"
	"github.com/releasetools/fixvet/pkg/errors"
)

// testRepo builds an in-memory repository and returns it with a commit
// helper. Commits are a minute apart so log order is deterministic.
func testRepo(t *testing.T) (*git.Repository, func(message string) plumbing.Hash) {
	t.Helper()

	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	when := time.Date(2016, 5, 1, 12, 0, 0, 0, time.UTC)
	commit := func(message string) plumbing.Hash {
		t.Helper()
		when = when.Add(time.Minute)
		hash, err := wt.Commit(message, &git.CommitOptions{
			AllowEmptyCommits: true,
			Author: &object.Signature{
				Name:  "Release Manager",
				Email: "rm@example.org",
				When:  when,
			},
		})
		require.NoError(t, err)
		return hash
	}

	return repo, commit
}

func TestCommitsBetween(t *testing.T) {
	repo, commit := testRepo(t)

	base := commit("HADOOP-1. initial import")
	c1 := commit("HADOOP-100. fix bug\n\nLonger description.")
	c2 := commit("no jira ref here")

	commits, err := gitlog.New(repo).CommitsBetween(base.String(), "")
	require.NoError(t, err)

	// Newest first, base excluded.
	require.Len(t, commits, 2)
	assert.Equal(t, c2.String(), commits[0].Hash)
	assert.Equal(t, "no jira ref here", commits[0].Subject)
	assert.Equal(t, c1.String(), commits[1].Hash)
	assert.Equal(t, "HADOOP-100. fix bug", commits[1].Subject)
	assert.Contains(t, commits[1].Message, "Longer description.")
}

func TestCommitsBetweenExplicitEnd(t *testing.T) {
	repo, commit := testRepo(t)

	base := commit("HADOOP-1. initial import")
	mid := commit("HDFS-2. middle commit")
	commit("YARN-3. tip commit")

	commits, err := gitlog.New(repo).CommitsBetween(base.String(), mid.String())
	require.NoError(t, err)

	require.Len(t, commits, 1)
	assert.Equal(t, mid.String(), commits[0].Hash)
}

func TestCommitsBetweenSameRef(t *testing.T) {
	repo, commit := testRepo(t)

	tip := commit("HADOOP-1. only commit")

	commits, err := gitlog.New(repo).CommitsBetween(tip.String(), tip.String())
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestCommitsBetweenUnknownRef(t *testing.T) {
	repo, commit := testRepo(t)
	commit("HADOOP-1. initial import")

	_, err := gitlog.New(repo).CommitsBetween("rel/release-9.9.9", "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	var refErr *gitlog.RefNotFoundError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, "rel/release-9.9.9", refErr.Ref)
}

func TestOpenMissingRepository(t *testing.T) {
	_, err := gitlog.Open(t.TempDir())
	require.Error(t, err)
}
