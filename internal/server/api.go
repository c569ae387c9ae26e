package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/MisinfoDetector/internal/analyze"
	"github.com/TobiSchelling/MisinfoDetector/internal/database"
	"github.com/TobiSchelling/MisinfoDetector/internal/explain"
	"github.com/TobiSchelling/MisinfoDetector/internal/model"
	"github.com/TobiSchelling/MisinfoDetector/internal/related"
)

const maxRequestBytes = 1 << 20

// AnalysisResponse is the JSON body returned by POST /api/analyze.
type AnalysisResponse struct {
	ID              string            `json:"id"`
	Label           string            `json:"label"`
	Confidence      float64           `json:"confidence"`
	Keywords        []string          `json:"keywords"`
	Topic           string            `json:"topic"`
	VerificationURL string            `json:"verification_url"`
	Explanation     string            `json:"explanation"`
	Related         []related.Article `json:"related"`
	AnalyzedAt      string            `json:"analyzed_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewAnalysisResponse converts a pipeline result into its JSON form.
func NewAnalysisResponse(res *analyze.Result) AnalysisResponse {
	kw := []string(res.Keywords)
	if kw == nil {
		kw = []string{}
	}
	return AnalysisResponse{
		ID:              res.ID,
		Label:           string(res.Verdict.Label),
		Confidence:      res.Verdict.Confidence,
		Keywords:        kw,
		Topic:           res.Explanation.Topic,
		VerificationURL: res.Explanation.VerificationURL,
		Explanation:     res.Explanation.Text,
		Related:         res.Related,
		AnalyzedAt:      database.FormatStoredTime(res.AnalyzedAt),
	}
}

// storedAnalysisResponse converts a history record into its JSON form.
func storedAnalysisResponse(a *database.Analysis) AnalysisResponse {
	resp := AnalysisResponse{
		ID:              a.ID,
		Label:           a.Label,
		Confidence:      a.Confidence,
		Keywords:        a.Keywords,
		Topic:           a.Topic,
		VerificationURL: a.VerificationURL,
		Explanation:     explain.ForTopic(a.Topic, model.Label(a.Label)).Text,
		Related:         make([]related.Article, 0, len(a.Related)),
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if a.AnalyzedAt != nil {
		resp.AnalyzedAt = *a.AnalyzedAt
	}
	for _, r := range a.Related {
		resp.Related = append(resp.Related, related.Article{Title: r.Title, URL: r.URL})
	}
	return resp
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req analyze.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), req)
	switch {
	case errors.Is(err, analyze.ErrEmptySubmission):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: analyze.EmptySubmissionMessage})
	case err != nil:
		logrus.WithError(err).Error("Analysis failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "analysis failed"})
	default:
		writeJSON(w, http.StatusOK, NewAnalysisResponse(res))
	}
}

func (s *Server) handleAPIAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "history is disabled"})
		return
	}

	a, err := s.history.GetAnalysis(r.PathValue("id"))
	if err != nil {
		logrus.WithError(err).Error("Loading analysis failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "analysis not found"})
		return
	}
	writeJSON(w, http.StatusOK, storedAnalysisResponse(a))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("Writing JSON response failed")
	}
}
