package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gitstatviewer/logger"
)

// RateLimit represents GitHub's rate limit information
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Client represents a GitHub API client
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    *url.URL
}

// commitListItem mirrors one element of the commit-listing response
type commitListItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// commitDetailResponse mirrors the single-commit response. Stats are
// omitted upstream for some commits (merges), in which case both
// counters stay zero.
type commitDetailResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

// CommitSummary is one entry of a repository's paginated commit listing
type CommitSummary struct {
	SHA        string
	AuthorName string
	Date       time.Time
}

// CommitDetail carries the per-commit statistics needed for aggregation
type CommitDetail struct {
	SHA        string
	AuthorName string
	Date       time.Time
	Additions  int
	Deletions  int
}

func NewClient(token string) *Client {
	baseURL, _ := url.Parse("https://api.github.com")
	logger.Info("Initializing GitHub client", zap.String("base_url", baseURL.String()))
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// NewClientWithBaseURL is like NewClient but targets a custom API root.
// Used by tests against a local stub server.
func NewClientWithBaseURL(token, base string) (*Client, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}, nil
}

// parseRateLimit parses rate limit information from response headers
func parseRateLimit(resp *http.Response) RateLimit {
	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	remaining, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining"))
	reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)

	return RateLimit{
		Limit:     limit,
		Remaining: remaining,
		Reset:     time.Unix(reset, 0),
	}
}

// handleRateLimit waits out an exhausted rate-limit window
func (c *Client) handleRateLimit(resp *http.Response) error {
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		resetTime, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
		waitTime := time.Until(time.Unix(resetTime, 0))
		logger.Info("Rate limit exceeded, waiting for reset",
			zap.Int("limit", parseRateLimit(resp).Limit),
			zap.Time("reset_time", time.Unix(resetTime, 0)),
			zap.Duration("wait_time", waitTime))
		time.Sleep(waitTime)
		return nil
	}
	return nil
}

// get performs an authenticated GET against the API and decodes the
// JSON response body into out.
func (c *Client) get(ctx context.Context, reqURL *url.URL, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s", c.token))
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleRateLimit(resp); err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// ListCommits fetches one page of a repository's default-branch commit
// history, most recent first. A page shorter than perPage signals the
// end of the history.
func (c *Client) ListCommits(ctx context.Context, owner, name string, page, perPage int) ([]CommitSummary, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits", owner, name)
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	q := reqURL.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	reqURL.RawQuery = q.Encode()

	logger.Debug("Fetching commits page",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("page", page),
		zap.Int("per_page", perPage))

	var items []commitListItem
	if err := c.get(ctx, reqURL, &items); err != nil {
		logger.Error("Failed to fetch commits",
			zap.Error(err),
			zap.String("owner", owner),
			zap.String("name", name),
			zap.Int("page", page))
		return nil, fmt.Errorf("failed to fetch commits: %w", err)
	}

	summaries := make([]CommitSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, CommitSummary{
			SHA:        item.SHA,
			AuthorName: item.Commit.Author.Name,
			Date:       item.Commit.Author.Date,
		})
	}

	return summaries, nil
}

// GetCommitDetail fetches a single commit including its line statistics
func (c *Client) GetCommitDetail(ctx context.Context, owner, name, sha string) (*CommitDetail, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits/%s", owner, name, sha)
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	logger.Debug("Fetching commit detail",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.String("sha", sha))

	var detail commitDetailResponse
	if err := c.get(ctx, reqURL, &detail); err != nil {
		logger.Error("Failed to fetch commit detail",
			zap.Error(err),
			zap.String("owner", owner),
			zap.String("name", name),
			zap.String("sha", sha))
		return nil, fmt.Errorf("failed to fetch commit %s: %w", sha, err)
	}

	return &CommitDetail{
		SHA:        detail.SHA,
		AuthorName: detail.Commit.Author.Name,
		Date:       detail.Commit.Author.Date,
		Additions:  detail.Stats.Additions,
		Deletions:  detail.Stats.Deletions,
	}, nil
}
