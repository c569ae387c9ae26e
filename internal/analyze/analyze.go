package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/MisinfoDetector/internal/database"
	"github.com/TobiSchelling/MisinfoDetector/internal/explain"
	"github.com/TobiSchelling/MisinfoDetector/internal/keywords"
	"github.com/TobiSchelling/MisinfoDetector/internal/model"
	"github.com/TobiSchelling/MisinfoDetector/internal/related"
)

// EmptySubmissionMessage is shown when both the text and the link are blank.
const EmptySubmissionMessage = "Please enter an article or link to analyze"

// ErrEmptySubmission means neither text nor URL was supplied. It is a
// validation warning, not a failure.
var ErrEmptySubmission = errors.New("empty submission")

// Classifier predicts a verdict for article text.
type Classifier interface {
	Classify(text string) (model.Verdict, error)
}

// RelatedFinder looks up related articles for a keyword set.
type RelatedFinder interface {
	Find(ctx context.Context, kw keywords.Set) related.Result
}

// Recorder stores completed analyses.
type Recorder interface {
	InsertAnalysis(a *database.Analysis) error
}

// TextFetcher extracts readable text from an article URL.
type TextFetcher interface {
	FetchText(ctx context.Context, articleURL string) (string, error)
}

// Request is one user submission.
type Request struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Blank reports whether both fields are empty after trimming whitespace.
func (r Request) Blank() bool {
	return strings.TrimSpace(r.Text) == "" && strings.TrimSpace(r.URL) == ""
}

// Result is everything rendered for one analysis.
type Result struct {
	ID          string
	Text        string // the text that was classified
	URL         string
	Keywords    keywords.Set
	Verdict     model.Verdict
	Explanation explain.Explanation
	Related     []related.Article // real entries or a single placeholder
	RelatedErr  error
	AnalyzedAt  time.Time
}

// Analyzer composes the per-request pipeline. It holds no mutable state
// and is safe for concurrent use.
type Analyzer struct {
	classifier Classifier
	finder     RelatedFinder
	recorder   Recorder
	fetcher    TextFetcher
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRecorder stores every completed analysis.
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) { a.recorder = r }
}

// WithFetcher enables extracting text from the submitted URL when the text
// field is blank.
func WithFetcher(f TextFetcher) Option {
	return func(a *Analyzer) { a.fetcher = f }
}

// New creates an Analyzer. A nil finder behaves as a provider that never
// finds anything.
func New(classifier Classifier, finder RelatedFinder, opts ...Option) *Analyzer {
	if finder == nil {
		finder = related.NewFinder(nil, related.MaxArticles, 0)
	}
	a := &Analyzer{classifier: classifier, finder: finder}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze classifies the submission and gathers its explanation and related
// articles. Related-article failures never fail the analysis; only an
// empty submission or a classification error is returned.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.Blank() {
		return nil, ErrEmptySubmission
	}

	res := &Result{
		ID:         uuid.New().String(),
		URL:        strings.TrimSpace(req.URL),
		AnalyzedAt: time.Now().UTC(),
	}
	log := logrus.WithField("analysis_id", res.ID)

	res.Text = a.textToAnalyze(ctx, req, log)

	verdict, err := a.classifier.Classify(res.Text)
	if err != nil {
		log.WithError(err).Error("Classification failed")
		return nil, fmt.Errorf("classifying submission: %w", err)
	}
	res.Verdict = verdict

	res.Keywords = keywords.Extract(res.Text)

	found := a.finder.Find(ctx, res.Keywords)
	res.Related = found.Entries()
	res.RelatedErr = found.Err

	res.Explanation = explain.Resolve(res.Keywords, verdict.Label)

	log.WithFields(logrus.Fields{
		"label":      verdict.Label,
		"confidence": fmt.Sprintf("%.2f", verdict.Confidence),
		"keywords":   res.Keywords.Query(),
		"topic":      res.Explanation.Topic,
	}).Info("Analysis complete")

	a.record(res, log)
	return res, nil
}

func (a *Analyzer) textToAnalyze(ctx context.Context, req Request, log *logrus.Entry) string {
	if strings.TrimSpace(req.Text) != "" {
		return req.Text
	}
	if a.fetcher != nil && strings.TrimSpace(req.URL) != "" {
		text, err := a.fetcher.FetchText(ctx, strings.TrimSpace(req.URL))
		if err == nil {
			return text
		}
		log.WithError(err).Warn("Could not extract article text from URL")
	}
	return model.NoTextSentinel
}

func (a *Analyzer) record(res *Result, log *logrus.Entry) {
	if a.recorder == nil {
		return
	}

	rec := &database.Analysis{
		ID:              res.ID,
		Text:            res.Text,
		Label:           string(res.Verdict.Label),
		Confidence:      res.Verdict.Confidence,
		Keywords:        []string(res.Keywords),
		Topic:           res.Explanation.Topic,
		VerificationURL: res.Explanation.VerificationURL,
	}
	stamp := database.FormatStoredTime(res.AnalyzedAt)
	rec.AnalyzedAt = &stamp
	if res.URL != "" {
		u := res.URL
		rec.URL = &u
	}
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}
	for _, r := range res.Related {
		rec.Related = append(rec.Related, database.RelatedArticle{Title: r.Title, URL: r.URL})
	}
	if res.RelatedErr != nil {
		msg := res.RelatedErr.Error()
		rec.RelatedError = &msg
	}

	if err := a.recorder.InsertAnalysis(rec); err != nil {
		log.WithError(err).Warn("Failed to record analysis")
	}
}
