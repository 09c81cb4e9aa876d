package bulkupdate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/releasetools/fixvet/pkg/errors"
)

// Changelog is the append-only record of attempted fix-version changes.
// Every candidate's old and new version lists are written, and flushed,
// before the corresponding tracker write happens, so a partial failure
// leaves a resumable record.
type Changelog struct {
	w      io.Writer
	closer io.Closer
	path   string
}

// NewChangelog writes change entries to the given writer.
func NewChangelog(w io.Writer) *Changelog {
	return &Changelog{w: w}
}

// OpenChangelog opens (creating or appending to) a changelog file.
func OpenChangelog(path string) (*Changelog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	return &Changelog{w: f, closer: f, path: path}, nil
}

// Record appends the old and new fix-version lists for an issue.
func (c *Changelog) Record(key string, oldVersions, newVersions []string) error {
	_, err := fmt.Fprintf(c.w, "%s old fix versions: %s\n%s new fix versions: %s\n",
		key, strings.Join(oldVersions, ","),
		key, strings.Join(newVersions, ","))
	if err != nil {
		return errors.WrapIO("write", c.path, err)
	}
	if f, ok := c.w.(*os.File); ok {
		if err := f.Sync(); err != nil {
			return errors.WrapIO("write", c.path, err)
		}
	}
	return nil
}

// Close closes the underlying file, if any.
func (c *Changelog) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// LoadExcludes reads an exclude file: one issue key per line, blank
// lines and #-comments skipped.
func LoadExcludes(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	excludes := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		key := strings.TrimSpace(line)
		if key == "" || strings.HasPrefix(key, "#") {
			continue
		}
		excludes[strings.ToUpper(key)] = struct{}{}
	}
	return excludes, nil
}
