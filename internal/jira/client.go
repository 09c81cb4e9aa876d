// Package jira is a minimal client for the JIRA REST API v2: paged JQL
// search and fix-version mutation. It covers exactly what fixvet needs
// against issues.apache.org and nothing more.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/releasetools/fixvet/internal/transport"
	"github.com/releasetools/fixvet/pkg/errors"
	"github.com/releasetools/fixvet/pkg/logging"
)

// DefaultBaseURL is the Apache Software Foundation JIRA instance.
const DefaultBaseURL = "https://issues.apache.org/jira"

// searchPageSize is the page size used for JQL searches.
const searchPageSize = 100

// Client talks to one JIRA instance.
type Client struct {
	baseURL string
	http    *transport.Client
}

// NewClient creates a JIRA client for the given base URL.
func NewClient(baseURL string, httpClient *transport.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Search runs a JQL query, following pagination until all matching
// issues are collected.
func (c *Client) Search(ctx context.Context, jql string) ([]Issue, error) {
	var issues []Issue

	for {
		endpoint := fmt.Sprintf("%s/rest/api/2/search?jql=%s&startAt=%d&maxResults=%d",
			c.baseURL, url.QueryEscape(jql), len(issues), searchPageSize)

		logging.Debug().
			Int("start_at", len(issues)).
			Int("max_results", searchPageSize).
			Msg("Fetching batch of issues")

		resp, err := c.http.Get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var page searchResponse
		if err := transport.DecodeResponse(resp, &page); err != nil {
			return nil, err
		}

		issues = append(issues, page.Issues...)
		if len(page.Issues) == 0 || len(issues) >= page.Total {
			break
		}
	}

	logging.Debug().Int("total", len(issues)).Msg("JQL search complete")
	return issues, nil
}

// UpdateFixVersions replaces the fix-version list of an issue.
func (c *Client) UpdateFixVersions(ctx context.Context, key string, versions []string) error {
	if key == "" {
		return &errors.ValidationError{Field: "key", Message: "issue key is required"}
	}

	named := make([]Version, 0, len(versions))
	for _, v := range versions {
		named = append(named, Version{Name: v})
	}
	payload, err := json.Marshal(map[string]any{
		"fields": map[string]any{
			"fixVersions": named,
		},
	})
	if err != nil {
		return errors.WrapParse("json", "fixVersions payload", err)
	}

	endpoint := fmt.Sprintf("%s/rest/api/2/issue/%s", c.baseURL, url.PathEscape(key))
	resp, err := c.http.Put(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	return transport.DecodeResponse(resp, nil)
}

// FixedInVersionJQL builds the query for issues resolved as Fixed in the
// given fix version across the given projects.
func FixedInVersionJQL(projects []string, fixVersion string) string {
	return fmt.Sprintf(`project in (%s) and fixVersion = %q and resolution = Fixed`,
		strings.Join(projects, ", "), fixVersion)
}
