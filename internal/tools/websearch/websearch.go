// Package websearch answers ad-hoc lookup queries using the Google Custom
// Search JSON API. It implements the dispatch Searcher contract.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	searchEndpoint = "https://www.googleapis.com/customsearch/v1"

	// apiMaxResults is the per-request cap imposed by the API.
	apiMaxResults = 10

	defaultNumResults = 5
	defaultTimeout    = 15 * time.Second
)

// Option is a functional option for Client.
type Option func(*Client)

// WithNumResults sets how many results are included in the formatted
// answer. Values above the API limit of 10 are clamped.
func WithNumResults(n int) Option {
	return func(c *Client) {
		c.numResults = n
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithEndpoint overrides the search endpoint URL. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// Client performs web searches via the Google Custom Search JSON API.
type Client struct {
	apiKey     string
	cseID      string
	endpoint   string
	numResults int
	httpClient *http.Client
}

// New creates a search Client. apiKey and cseID (the custom search engine
// ID) must be non-empty.
func New(apiKey, cseID string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("websearch: apiKey must not be empty")
	}
	if cseID == "" {
		return nil, errors.New("websearch: cseID must not be empty")
	}
	c := &Client{
		apiKey:     apiKey,
		cseID:      cseID,
		endpoint:   searchEndpoint,
		numResults: defaultNumResults,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	if c.numResults <= 0 || c.numResults > apiMaxResults {
		c.numResults = defaultNumResults
	}
	return c, nil
}

// searchResponse is the subset of the Custom Search response we consume.
type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search runs query against the API and returns a formatted plain-text
// answer listing the top results.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("websearch: query must not be empty")
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cseID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.numResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("websearch: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("websearch: search HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("websearch: search: unexpected status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("websearch: decode response: %w", err)
	}

	if len(sr.Items) == 0 {
		return fmt.Sprintf("No results found for query: %s", query), nil
	}

	return formatResults(query, sr.Items, c.numResults), nil
}

// formatResults renders search items the way the assistant reads them
// back: a numbered list with title, URL, and description.
func formatResults(query string, items []searchItem, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n\n", query)

	for i, item := range items {
		if i >= limit {
			break
		}
		title := item.Title
		if title == "" {
			title = "No title"
		}
		link := item.Link
		if link == "" {
			link = "No link"
		}
		snippet := item.Snippet
		if snippet == "" {
			snippet = "No description"
		}
		fmt.Fprintf(&b, "%d. %s\n   URL: %s\n   Description: %s\n\n", i+1, title, link, snippet)
	}
	return b.String()
}
