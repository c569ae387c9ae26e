package database

// Analysis is one stored classification of a submitted article.
type Analysis struct {
	ID              string
	Text            string
	URL             *string
	Label           string // "credible" or "not-credible"
	Confidence      float64
	Keywords        []string
	Topic           string
	VerificationURL string
	Related         []RelatedArticle
	RelatedError    *string
	AnalyzedAt      *string
}

// RelatedArticle is a related-news link shown alongside an analysis.
type RelatedArticle struct {
	Title string
	URL   string
}

// Stats holds aggregate counts over the analysis history.
type Stats struct {
	Total       int
	Credible    int
	NotCredible int
	Today       int
}
