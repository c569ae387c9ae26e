package related

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/MisinfoDetector/internal/keywords"
)

// MaxArticles caps the number of related articles per analysis.
const MaxArticles = 3

const (
	NoResultsTitle = "No related articles found."
	ErrorTitle     = "Error fetching related articles."
	PlaceholderURL = "#"
)

// Article is a related article title and link.
type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Provider searches an external source for articles matching a query.
type Provider interface {
	Search(ctx context.Context, query string, pageSize int) ([]Article, error)
}

// Result is the outcome of a related-articles lookup: either articles or an error.
type Result struct {
	Articles []Article
	Err      error
}

// Entries returns the articles to display, substituting a single placeholder
// entry when the lookup failed or found nothing.
func (r Result) Entries() []Article {
	if r.Err != nil {
		return []Article{{Title: ErrorTitle, URL: PlaceholderURL}}
	}
	if len(r.Articles) == 0 {
		return []Article{{Title: NoResultsTitle, URL: PlaceholderURL}}
	}
	return r.Articles
}

// Finder queries a provider with extracted keywords, caching successful results.
type Finder struct {
	provider Provider
	pageSize int
	cache    *cache.Cache
}

// NewFinder creates a Finder. A nil provider always yields no results.
// cacheTTL <= 0 disables caching.
func NewFinder(provider Provider, pageSize int, cacheTTL time.Duration) *Finder {
	if pageSize <= 0 || pageSize > MaxArticles {
		pageSize = MaxArticles
	}
	f := &Finder{provider: provider, pageSize: pageSize}
	if cacheTTL > 0 {
		f.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return f
}

// Find looks up articles for the keyword set. It never panics or aborts the
// caller; failures are returned inside the Result.
func (f *Finder) Find(ctx context.Context, kw keywords.Set) Result {
	if f.provider == nil {
		return Result{}
	}

	query := kw.Query()
	if f.cache != nil {
		if cached, ok := f.cache.Get(query); ok {
			logrus.WithField("query", query).Debug("Related articles served from cache")
			return Result{Articles: cached.([]Article)}
		}
	}

	articles, err := f.provider.Search(ctx, query, f.pageSize)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"query": query,
			"error": err,
		}).Warn("Error fetching related articles")
		return Result{Err: err}
	}
	if len(articles) > f.pageSize {
		articles = articles[:f.pageSize]
	}

	if f.cache != nil && len(articles) > 0 {
		f.cache.SetDefault(query, articles)
	}
	logrus.WithField("query", query).Debugf("Fetched %d related articles", len(articles))
	return Result{Articles: articles}
}
