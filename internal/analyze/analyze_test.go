package analyze

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/MisinfoDetector/internal/database"
	"github.com/TobiSchelling/MisinfoDetector/internal/keywords"
	"github.com/TobiSchelling/MisinfoDetector/internal/model"
	"github.com/TobiSchelling/MisinfoDetector/internal/related"
)

type fakeClassifier struct {
	verdict model.Verdict
	err     error
	texts   []string
}

func (f *fakeClassifier) Classify(text string) (model.Verdict, error) {
	f.texts = append(f.texts, text)
	return f.verdict, f.err
}

type fakeProvider struct {
	articles []related.Article
	err      error
	queries  []string
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]related.Article, error) {
	f.queries = append(f.queries, query)
	return f.articles, f.err
}

type fakeRecorder struct {
	saved []*database.Analysis
	err   error
}

func (f *fakeRecorder) InsertAnalysis(a *database.Analysis) error {
	f.saved = append(f.saved, a)
	return f.err
}

type fakeFetcher struct {
	text string
	err  error
	urls []string
}

func (f *fakeFetcher) FetchText(_ context.Context, u string) (string, error) {
	f.urls = append(f.urls, u)
	return f.text, f.err
}

var credible912 = model.Verdict{Label: model.LabelCredible, Confidence: 91.2}

func TestAnalyzeMeditationEndToEnd(t *testing.T) {
	clf := &fakeClassifier{verdict: credible912}
	provider := &fakeProvider{articles: []related.Article{{Title: "Calm hearts", URL: "https://news.example.com/1"}}}
	a := New(clf, related.NewFinder(provider, 3, 0))

	res, err := a.Analyze(context.Background(), Request{
		Text: "Meditation has been shown to improve heart health significantly",
	})
	require.NoError(t, err)

	assert.Equal(t, model.LabelCredible, res.Verdict.Label)
	assert.InDelta(t, 91.2, res.Verdict.Confidence, 1e-9)
	assert.Equal(t, keywords.Set{"meditation", "heart", "health"}, res.Keywords)
	assert.Equal(t, "https://www.heart.org/en/news/meditation-heart-health-benefits", res.Explanation.VerificationURL)
	assert.Contains(t, res.Explanation.Text, "classified as true because meditation")
	assert.Equal(t, []related.Article{{Title: "Calm hearts", URL: "https://news.example.com/1"}}, res.Related)
	assert.Equal(t, []string{"meditation heart health"}, provider.queries)
	assert.NotEmpty(t, res.ID)
}

func TestAnalyzeEmptySubmission(t *testing.T) {
	clf := &fakeClassifier{verdict: credible912}
	a := New(clf, nil)

	for _, req := range []Request{{}, {Text: "   ", URL: "\t\n"}} {
		_, err := a.Analyze(context.Background(), req)
		assert.ErrorIs(t, err, ErrEmptySubmission)
	}
	assert.Empty(t, clf.texts, "classifier must not run for empty submissions")
}

func TestAnalyzeURLOnlyUsesSentinel(t *testing.T) {
	clf := &fakeClassifier{verdict: model.Verdict{Label: model.LabelNotCredible, Confidence: 64}}
	a := New(clf, nil)

	res, err := a.Analyze(context.Background(), Request{URL: "https://example.com/story"})
	require.NoError(t, err)

	assert.Equal(t, []string{model.NoTextSentinel}, clf.texts)
	assert.Equal(t, keywords.Set{"text", "provided"}, res.Keywords)
	assert.Equal(t, "general", res.Explanation.Topic)
	assert.Equal(t, "https://example.com/story", res.URL)
}

func TestAnalyzeFetchesTextWhenEnabled(t *testing.T) {
	clf := &fakeClassifier{verdict: credible912}
	fetcher := &fakeFetcher{text: "New vaccine efficacy study published"}
	a := New(clf, nil, WithFetcher(fetcher))

	res, err := a.Analyze(context.Background(), Request{URL: " https://example.com/vax "})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/vax"}, fetcher.urls)
	assert.Equal(t, "vaccine-efficacy", res.Explanation.Topic)
}

func TestAnalyzeFetchFailureFallsBackToSentinel(t *testing.T) {
	clf := &fakeClassifier{verdict: credible912}
	a := New(clf, nil, WithFetcher(&fakeFetcher{err: errors.New("timeout")}))

	_, err := a.Analyze(context.Background(), Request{URL: "https://example.com/x"})
	require.NoError(t, err)
	assert.Equal(t, []string{model.NoTextSentinel}, clf.texts)
}

func TestAnalyzeTextTakesPrecedenceOverFetch(t *testing.T) {
	fetcher := &fakeFetcher{text: "ignored"}
	a := New(&fakeClassifier{verdict: credible912}, nil, WithFetcher(fetcher))

	_, err := a.Analyze(context.Background(), Request{Text: "heart news", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Empty(t, fetcher.urls)
}

func TestAnalyzeProviderErrorDoesNotFail(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	a := New(&fakeClassifier{verdict: credible912}, related.NewFinder(provider, 3, 0))

	res, err := a.Analyze(context.Background(), Request{Text: "Vaccine efficacy trial"})
	require.NoError(t, err)

	assert.Error(t, res.RelatedErr)
	assert.Equal(t, []related.Article{{Title: related.ErrorTitle, URL: "#"}}, res.Related)
	assert.Equal(t, "vaccine-efficacy", res.Explanation.Topic)
}

func TestAnalyzeClassifierError(t *testing.T) {
	rec := &fakeRecorder{}
	a := New(&fakeClassifier{err: model.ErrInference}, nil, WithRecorder(rec))

	_, err := a.Analyze(context.Background(), Request{Text: "anything"})
	assert.ErrorIs(t, err, model.ErrInference)
	assert.Empty(t, rec.saved)
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	rec := &fakeRecorder{}
	provider := &fakeProvider{err: errors.New("boom")}
	a := New(&fakeClassifier{verdict: credible912}, related.NewFinder(provider, 3, 0), WithRecorder(rec))

	res, err := a.Analyze(context.Background(), Request{Text: "Approval rating for Trump", URL: "https://example.com/poll"})
	require.NoError(t, err)
	require.Len(t, rec.saved, 1)

	saved := rec.saved[0]
	assert.Equal(t, res.ID, saved.ID)
	assert.Equal(t, "credible", saved.Label)
	assert.Equal(t, "political-approval", saved.Topic)
	assert.Equal(t, []string{"approval", "rating", "trump"}, saved.Keywords)
	require.NotNil(t, saved.URL)
	assert.Equal(t, "https://example.com/poll", *saved.URL)
	require.NotNil(t, saved.RelatedError)
	assert.Equal(t, "boom", *saved.RelatedError)
	assert.Equal(t, []database.RelatedArticle{{Title: related.ErrorTitle, URL: "#"}}, saved.Related)
	require.NotNil(t, saved.AnalyzedAt)
	assert.Equal(t, database.FormatStoredTime(res.AnalyzedAt), *saved.AnalyzedAt)
}

func TestAnalyzeStoredRelatedErrorOmitsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
			conn.Close()
		}
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	client := related.NewNewsAPIClient("SECRET-KEY-123", related.WithBaseURL(srv.URL))
	a := New(&fakeClassifier{verdict: credible912}, related.NewFinder(client, 3, 0), WithRecorder(rec))

	_, err := a.Analyze(context.Background(), Request{Text: "Vaccine efficacy trial"})
	require.NoError(t, err)
	require.Len(t, rec.saved, 1)
	require.NotNil(t, rec.saved[0].RelatedError)
	assert.NotContains(t, *rec.saved[0].RelatedError, "SECRET-KEY-123")
}

func TestAnalyzeRecorderFailureIsAbsorbed(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	a := New(&fakeClassifier{verdict: credible912}, nil, WithRecorder(rec))

	res, err := a.Analyze(context.Background(), Request{Text: "heart"})
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestAnalyzeWithSQLiteRecorder(t *testing.T) {
	db, err := database.OpenInDir(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := New(&fakeClassifier{verdict: credible912}, nil, WithRecorder(db))
	res, err := a.Analyze(context.Background(), Request{Text: "Meditation helps the heart"})
	require.NoError(t, err)

	stored, err := db.GetAnalysis(res.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "meditation-heart", stored.Topic)
	require.NotNil(t, stored.AnalyzedAt)
	assert.Equal(t, database.FormatStoredTime(res.AnalyzedAt), *stored.AnalyzedAt)
	assert.Equal(t, []database.RelatedArticle{{Title: related.NoResultsTitle, URL: "#"}}, stored.Related)
}
