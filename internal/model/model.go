package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NoTextSentinel is classified in place of blank article text.
const NoTextSentinel = "No text provided"

// CredibleClass is the classifier output that maps to a credible verdict.
const CredibleClass = 1

var (
	ErrArtifactNotFound = errors.New("model or vectorizer file not found")
	ErrInvalidArtifact  = errors.New("invalid model artifact")
	ErrInference        = errors.New("classification failed")
)

// Label is the predicted credibility of an article.
type Label string

const (
	LabelCredible    Label = "credible"
	LabelNotCredible Label = "not-credible"
)

// Credible reports whether the label is the credible branch.
func (l Label) Credible() bool {
	return l == LabelCredible
}

// Verdict is a label plus the confidence percentage of the predicted class.
type Verdict struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Model holds the loaded artifacts. It is read-only after Load and safe
// for concurrent use.
type Model struct {
	vectorizer *Vectorizer
	classifier *Classifier
}

// Load reads the vectorizer and classifier artifacts from disk.
func Load(vectorizerPath, classifierPath string) (*Model, error) {
	var v Vectorizer
	if err := readArtifact(vectorizerPath, &v); err != nil {
		return nil, err
	}
	var c Classifier
	if err := readArtifact(classifierPath, &c); err != nil {
		return nil, err
	}

	m, err := New(&v, &c)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"vectorizer":  vectorizerPath,
		"classifier":  classifierPath,
		"vocabulary":  v.Dim(),
		"ngram_range": v.NgramRange,
	}).Info("Loaded classifier artifacts")
	return m, nil
}

// New validates the components and assembles a Model.
func New(v *Vectorizer, c *Classifier) (*Model, error) {
	if err := v.validate(); err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", ErrInvalidArtifact, err)
	}
	if err := c.validate(v.Dim()); err != nil {
		return nil, fmt.Errorf("%w: classifier: %v", ErrInvalidArtifact, err)
	}
	return &Model{vectorizer: v, classifier: c}, nil
}

func readArtifact(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return fmt.Errorf("reading artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	return nil
}

// Classify predicts a verdict for text. Blank text is replaced by NoTextSentinel.
func (m *Model) Classify(text string) (Verdict, error) {
	if strings.TrimSpace(text) == "" {
		text = NoTextSentinel
	}
	text = strings.ToValidUTF8(text, "�")

	features := m.vectorizer.Transform(text)
	class, proba, err := m.classifier.Predict(features)
	if err != nil {
		return Verdict{}, err
	}

	label := LabelNotCredible
	if class == CredibleClass {
		label = LabelCredible
	}
	return Verdict{
		Label:      label,
		Confidence: max(proba[0], proba[1]) * 100,
	}, nil
}
