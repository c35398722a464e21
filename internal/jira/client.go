// Package jira implements the remote issue client: deterministic filter
// construction, paginated fetching with a retry wrapper, and a lightweight
// identity probe.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gojira "github.com/andygrunwald/go-jira"
	"github.com/sirupsen/logrus"
)

const (
	searchPath     = "rest/api/3/search"
	searchPageSize = 100
	requestTimeout = 30 * time.Second
)

// searchFields is the fixed field allowlist requested on every search page.
var searchFields = []string{
	"summary", "description", "status", "assignee", "reporter", "priority",
	"issuetype", "customfield_10016", "customfield_10020", "labels",
	"components", "created", "updated", "duedate", "resolution",
	"timetracking", "parent", "subtasks", "issuelinks",
}

// ProgressFunc receives the accumulated and total issue counts after every
// fetched page.
type ProgressFunc func(current, total int)

// Client wraps the go-jira client with the search, probe and project-listing
// calls the sync engine needs.
type Client struct {
	jc    *gojira.Client
	retry RetryConfig
	log   *logrus.Entry
}

// NewClient creates a client for the given instance using API-token basic auth.
func NewClient(baseURL, username, apiToken string) (*Client, error) {
	transport := gojira.BasicAuthTransport{
		Username: username,
		Password: apiToken,
	}
	httpClient := transport.Client()
	httpClient.Timeout = requestTimeout

	jc, err := gojira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create JIRA client: %w", err)
	}

	return &Client{
		jc:    jc,
		retry: DefaultRetryConfig(),
		log:   logrus.WithField("component", "jira"),
	}, nil
}

// SetRetryConfig overrides the default retry policy.
func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.retry = cfg
}

// classify converts a failed go-jira call into the retry taxonomy: responses
// with a status code become StatusErrors, everything else stays a bare
// (retryable) network error.
func classify(resp *gojira.Response, err error) error {
	if resp != nil && resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return withRetry(ctx, c.retry, func(ctx context.Context) error {
		target := path
		if len(query) > 0 {
			target += "?" + query.Encode()
		}

		req, err := c.jc.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}

		resp, err := c.jc.Do(req, out)
		if err != nil {
			return classify(resp, err)
		}
		return nil
	})
}

// FetchPage fetches one search page at the given offset with the fixed page
// size and field allowlist.
func (c *Client) FetchPage(ctx context.Context, jql string, startAt int) (*SearchPage, error) {
	query := url.Values{}
	query.Set("jql", jql)
	query.Set("startAt", strconv.Itoa(startAt))
	query.Set("maxResults", strconv.Itoa(searchPageSize))
	query.Set("fields", strings.Join(searchFields, ","))

	var resp searchResponse
	if err := c.get(ctx, searchPath, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	return &SearchPage{
		Issues:   resp.Issues,
		Total:    resp.Total,
		PageSize: resp.MaxResults,
	}, nil
}

// FetchAll repeats FetchPage until the accumulated count reaches the reported
// total. The progress callback, if set, fires after every page; a total of
// zero terminates after the first page.
func (c *Client) FetchAll(ctx context.Context, jql string, onProgress ProgressFunc) ([]Issue, error) {
	var issues []Issue

	for {
		page, err := c.FetchPage(ctx, jql, len(issues))
		if err != nil {
			return nil, err
		}

		issues = append(issues, page.Issues...)
		if onProgress != nil {
			onProgress(len(issues), page.Total)
		}

		c.log.WithField("fetched", len(issues)).WithField("total", page.Total).Debug("fetched search page")

		if len(issues) >= page.Total || len(page.Issues) == 0 {
			return issues, nil
		}
	}
}

// TestConnection performs the identity probe. It never returns an error:
// the result is either (true, display name) or (false, failure message).
func (c *Client) TestConnection(ctx context.Context) (bool, string) {
	var displayName string

	err := withRetry(ctx, c.retry, func(ctx context.Context) error {
		user, resp, err := c.jc.User.GetSelfWithContext(ctx)
		if err != nil {
			return classify(resp, err)
		}
		displayName = user.DisplayName
		return nil
	})
	if err != nil {
		return false, err.Error()
	}

	return true, displayName
}

// ListProjects fetches the remote project listing.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project

	err := withRetry(ctx, c.retry, func(ctx context.Context) error {
		list, resp, err := c.jc.Project.GetListWithContext(ctx)
		if err != nil {
			return classify(resp, err)
		}

		projects = projects[:0]
		for _, p := range *list {
			projects = append(projects, Project{Key: p.Key, Name: p.Name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}
