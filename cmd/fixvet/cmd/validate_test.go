package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releasetools/fixvet/pkg/errors"
)

// resetOverlayFlags clears the flag-backed variables between tests.
func resetOverlayFlags() {
	metadataFile = ""
	fixupFile = ""
	whitelistFile = ""
	startRef = ""
	endRef = ""
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverlayFromMetadata(t *testing.T) {
	resetOverlayFlags()
	metadataFile = writeFile(t, "meta.yaml", `
start_ref: rel/release-2.7.3
fixups:
  deadbeefcafe: HADOOP-1234
ignore:
  - 0123456789ab
ignore_jiras:
  - YARN-1
`)

	ov, err := loadOverlay("origin/branch-2.8.0")
	require.NoError(t, err)

	assert.Equal(t, "rel/release-2.7.3", ov.StartRef)
	// End ref falls back to the branch argument.
	assert.Equal(t, "origin/branch-2.8.0", ov.EndRef)
	key, ok := ov.IssueFor("deadbeefcafe")
	require.True(t, ok)
	assert.Equal(t, "HADOOP-1234", key)
	assert.True(t, ov.IgnoresIssue("yarn-1"))
}

func TestLoadOverlayFlagOverrides(t *testing.T) {
	resetOverlayFlags()
	metadataFile = writeFile(t, "meta.yaml", `
start_ref: rel/release-2.7.3
end_ref: origin/branch-2.8
`)
	startRef = "rel/release-2.7.2"
	endRef = "origin/branch-2.8.0"

	ov, err := loadOverlay("ignored-branch-arg")
	require.NoError(t, err)

	assert.Equal(t, "rel/release-2.7.2", ov.StartRef)
	assert.Equal(t, "origin/branch-2.8.0", ov.EndRef)
}

func TestLoadOverlayRequiresStartRef(t *testing.T) {
	resetOverlayFlags()
	metadataFile = ""

	_, err := loadOverlay("origin/branch-2.8.0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedOverlay))
}

func TestLoadOverlayStartRefFlagAlone(t *testing.T) {
	resetOverlayFlags()
	startRef = "rel/release-2.7.3"

	ov, err := loadOverlay("origin/branch-2.8.0")
	require.NoError(t, err)
	assert.Equal(t, "rel/release-2.7.3", ov.StartRef)
	assert.Equal(t, "origin/branch-2.8.0", ov.EndRef)
}

func TestLoadOverlayMergesLegacyFiles(t *testing.T) {
	resetOverlayFlags()
	fixupFile = writeFile(t, "fixups.json",
		`{"fixups":{"deadbeefcafe":"HDFS-42"},"ignore":["0123456789ab"]}`)
	whitelistFile = writeFile(t, "whitelist.json",
		`{"whitelist_jiras":["MAPREDUCE-7"]}`)
	startRef = "rel/release-2.7.3"

	ov, err := loadOverlay("origin/branch-2.8.0")
	require.NoError(t, err)

	key, ok := ov.IssueFor("deadbeefcafe")
	require.True(t, ok)
	assert.Equal(t, "HDFS-42", key)
	assert.True(t, ov.IgnoresCommit("0123456789ab"))
	assert.True(t, ov.IgnoresIssue("MAPREDUCE-7"))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef0123456789abcdef01234567"))
	assert.Equal(t, "abc1234", shortHash("abc1234"))
}
