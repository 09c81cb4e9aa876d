package reconcile

import (
	"regexp"
	"strings"
)

// revertSubjectPrefix starts the subject git generates for "git revert".
const revertSubjectPrefix = `Revert "`

var (
	// revertPattern matches the body line git appends on "git revert".
	revertPattern = regexp.MustCompile(`This reverts commit ([0-9a-f]{7,40})`)

	// mergePattern matches branch merge commit subjects, which carry no
	// issue key and are excluded from matching.
	mergePattern = regexp.MustCompile(`Merge branch '[^']+' into \S+`)
)

// revertTarget extracts the hash named by a revert marker in the commit
// message, if present.
func revertTarget(message string) (string, bool) {
	m := revertPattern.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// isRevertSubject reports whether the subject looks like a git revert
// even when the body does not name the reverted hash.
func isRevertSubject(subject string) bool {
	return strings.HasPrefix(subject, revertSubjectPrefix)
}

// isMergeCommit reports whether the subject is a branch merge.
func isMergeCommit(subject string) bool {
	return mergePattern.MatchString(subject)
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
