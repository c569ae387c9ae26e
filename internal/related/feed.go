package related

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultFeedURLTemplate is a Google News RSS search. {query} is replaced by
// the escaped search query.
const DefaultFeedURLTemplate = "https://news.google.com/rss/search?q={query}&hl=en-US&gl=US&ceid=US:en"

// FeedSearcher finds related articles through an RSS/Atom search endpoint.
type FeedSearcher struct {
	urlTemplate string
	parser      *gofeed.Parser
}

// NewFeedSearcher creates a searcher for the given URL template.
func NewFeedSearcher(urlTemplate string, timeout time.Duration) *FeedSearcher {
	if urlTemplate == "" {
		urlTemplate = DefaultFeedURLTemplate
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "misinfo/1.0 (related articles)"
	return &FeedSearcher{urlTemplate: urlTemplate, parser: parser}
}

// Search parses the search feed and returns the first pageSize items.
func (s *FeedSearcher) Search(ctx context.Context, query string, pageSize int) ([]Article, error) {
	feedURL := strings.ReplaceAll(s.urlTemplate, "{query}", url.QueryEscape(query))

	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var status gofeed.HTTPError
		if errors.As(err, &status) {
			return nil, &HTTPError{StatusCode: status.StatusCode}
		}
		return nil, fmt.Errorf("parsing search feed: %w", err)
	}

	var articles []Article
	for _, item := range feed.Items {
		if len(articles) >= pageSize {
			break
		}
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}
		articles = append(articles, Article{Title: title, URL: link})
	}
	return articles, nil
}
