package related

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultNewsAPIURL is the NewsAPI "everything" search endpoint.
const DefaultNewsAPIURL = "https://newsapi.org/v2/everything"

// NewsAPIClient searches NewsAPI for related articles.
type NewsAPIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewsAPIOption configures a NewsAPIClient.
type NewsAPIOption func(*NewsAPIClient)

// WithBaseURL overrides the search endpoint.
func WithBaseURL(u string) NewsAPIOption {
	return func(c *NewsAPIClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) NewsAPIOption {
	return func(c *NewsAPIClient) {
		c.client = hc
	}
}

// NewNewsAPIClient creates a client with the given API key.
func NewNewsAPIClient(apiKey string, opts ...NewsAPIOption) *NewsAPIClient {
	c := &NewsAPIClient{
		apiKey:  apiKey,
		baseURL: DefaultNewsAPIURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewNewsAPIClientFromEnv reads the API key from the named environment variable.
func NewNewsAPIClientFromEnv(apiKeyEnv string, opts ...NewsAPIOption) *NewsAPIClient {
	return NewNewsAPIClient(os.Getenv(apiKeyEnv), opts...)
}

// IsConfigured returns whether an API key is available.
func (c *NewsAPIClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Search queries NewsAPI for English articles sorted by relevance.
// A non-"ok" status in a successful response yields no articles and no error.
func (c *NewsAPIClient) Search(ctx context.Context, query string, pageSize int) ([]Article, error) {
	params := url.Values{
		"q":        {query},
		"apiKey":   {c.apiKey},
		"language": {"en"},
		"sortBy":   {"relevancy"},
		"pageSize": {strconv.Itoa(pageSize)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// The request URL carries the API key; keep it out of the message.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("NewsAPI error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("NewsAPI decode error: %w", err)
	}

	if result.Status != "ok" {
		return nil, nil
	}

	var articles []Article
	for _, a := range result.Articles {
		title := strings.TrimSpace(a.Title)
		if a.URL == "" || title == "" {
			continue
		}
		if title == "[Removed]" || a.URL == "https://removed.com" {
			continue
		}
		articles = append(articles, Article{Title: title, URL: a.URL})
	}
	return articles, nil
}

// HTTPError is a non-success HTTP status from a provider.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}
