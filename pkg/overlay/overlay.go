// Package overlay loads the reconciliation metadata overlay: manual
// hash-to-issue fixups plus commit and issue ignore lists. The overlay
// corrects for typos in git log messages and deliberately excludes
// umbrella tickets and merge commits from matching.
package overlay

import (
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/releasetools/fixvet/pkg/errors"
)

// Overlay is the user-supplied correction layer for a reconciliation run.
// It is loaded once per run and never mutated.
type Overlay struct {
	// StartRef is the git ref the commit range starts from. Mandatory.
	StartRef string `yaml:"start_ref"`

	// EndRef is the git ref the commit range ends at. Defaults to HEAD.
	EndRef string `yaml:"end_ref,omitempty"`

	// Fixups maps a commit hash to the issue key it resolves, overriding
	// whatever the commit message says.
	Fixups map[string]string `yaml:"fixups,omitempty"`

	// IgnoreCommits lists commit hashes excluded from matching entirely.
	IgnoreCommits []string `yaml:"ignore,omitempty"`

	// IgnoreIssues lists issue keys excluded from matching entirely.
	IgnoreIssues []string `yaml:"ignore_jiras,omitempty"`
}

// Empty returns an overlay with no fixups and no ignore lists.
func Empty() *Overlay {
	return &Overlay{}
}

// Load reads and validates an overlay from a YAML (or JSON, which YAML
// subsumes) metadata file.
func Load(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	return &o, nil
}

// Validate checks the overlay's mandatory fields.
func (o *Overlay) Validate() error {
	if o.StartRef == "" {
		return errors.NewConfigError("overlay", "start_ref is required", errors.ErrMalformedOverlay)
	}
	return nil
}

// IssueFor returns the fixup issue key for the given commit hash, if any.
// Fixup keys may be abbreviated hashes; matching is prefix-based.
func (o *Overlay) IssueFor(hash string) (string, bool) {
	if issue, ok := o.Fixups[hash]; ok {
		return issue, true
	}
	for k, issue := range o.Fixups {
		if hashMatch(k, hash) {
			return issue, true
		}
	}
	return "", false
}

// IgnoresCommit reports whether the given commit hash is on the ignore list.
func (o *Overlay) IgnoresCommit(hash string) bool {
	for _, h := range o.IgnoreCommits {
		if hashMatch(h, hash) {
			return true
		}
	}
	return false
}

// IgnoresIssue reports whether the given issue key is on the ignore list.
func (o *Overlay) IgnoresIssue(key string) bool {
	for _, k := range o.IgnoreIssues {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// minHashPrefix is the shortest abbreviation accepted when matching hashes.
const minHashPrefix = 7

// hashMatch reports whether two commit hashes refer to the same commit,
// allowing either side to be an abbreviation of the other.
func hashMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) < minHashPrefix || len(b) < minHashPrefix {
		return strings.EqualFold(a, b)
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	return strings.EqualFold(a, b[:len(a)])
}
