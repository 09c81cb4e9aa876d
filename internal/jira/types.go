package jira

import "github.com/releasetools/fixvet/pkg/reconcile"

// Issue is one issue as returned by the JIRA REST API.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields carries the subset of JIRA fields fixvet reads.
type IssueFields struct {
	Summary     string      `json:"summary"`
	Project     Project     `json:"project"`
	FixVersions []Version   `json:"fixVersions"`
	Resolution  *Resolution `json:"resolution"`
}

// Project identifies the JIRA project an issue belongs to.
type Project struct {
	Key string `json:"key"`
}

// Version is a named release version.
type Version struct {
	Name string `json:"name"`
}

// Resolution is the issue's resolution state, nil while unresolved.
type Resolution struct {
	Name string `json:"name"`
}

// searchResponse is one page of a JQL search.
type searchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// FixVersionNames returns the issue's fix versions as plain strings.
func (i Issue) FixVersionNames() []string {
	names := make([]string, 0, len(i.Fields.FixVersions))
	for _, v := range i.Fields.FixVersions {
		names = append(names, v.Name)
	}
	return names
}

// HasFixVersion reports whether the issue carries the named fix version.
func (i Issue) HasFixVersion(name string) bool {
	for _, v := range i.Fields.FixVersions {
		if v.Name == name {
			return true
		}
	}
	return false
}

// Records converts API issues into reconciliation records, preserving order.
func Records(issues []Issue) []reconcile.Issue {
	records := make([]reconcile.Issue, 0, len(issues))
	for _, is := range issues {
		records = append(records, reconcile.Issue{
			Key:         is.Key,
			Summary:     is.Fields.Summary,
			FixVersions: is.FixVersionNames(),
		})
	}
	return records
}
