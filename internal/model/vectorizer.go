package model

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// tokenPattern mirrors the default TfidfVectorizer token pattern: two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer is a frozen TF-IDF transform loaded from an artifact.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramRange  [2]int         `json:"ngram_range"`
	Lowercase   *bool          `json:"lowercase"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        *string        `json:"norm"`
	StopWords   []string       `json:"stop_words"`

	stop map[string]struct{}
}

// Features is a sparse feature vector keyed by vocabulary index.
type Features map[int]float64

// UnmarshalJSON decodes an artifact. An explicit "norm": null disables
// normalisation; an absent norm keeps the l2 default.
func (v *Vectorizer) UnmarshalJSON(data []byte) error {
	type plain Vectorizer
	var raw struct {
		plain
		Norm json.RawMessage `json:"norm"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Vectorizer(raw.plain)

	switch {
	case raw.Norm == nil:
		v.Norm = nil
	case string(raw.Norm) == "null":
		none := "none"
		v.Norm = &none
	default:
		var norm string
		if err := json.Unmarshal(raw.Norm, &norm); err != nil {
			return fmt.Errorf("norm: %w", err)
		}
		v.Norm = &norm
	}
	return nil
}

// Dim returns the length of the feature space.
func (v *Vectorizer) Dim() int {
	return len(v.IDF)
}

func (v *Vectorizer) validate() error {
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("empty vocabulary")
	}
	if len(v.IDF) != len(v.Vocabulary) {
		return fmt.Errorf("idf length %d does not match vocabulary size %d", len(v.IDF), len(v.Vocabulary))
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return fmt.Errorf("vocabulary index %d for %q out of range", idx, term)
		}
	}
	if v.NgramRange == [2]int{} {
		v.NgramRange = [2]int{1, 1}
	}
	if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
		return fmt.Errorf("invalid ngram_range %v", v.NgramRange)
	}
	switch v.norm() {
	case "l1", "l2", "", "none":
	default:
		return fmt.Errorf("unsupported norm %q", v.norm())
	}

	v.stop = make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stop[w] = struct{}{}
	}
	return nil
}

func (v *Vectorizer) lowercase() bool {
	return v.Lowercase == nil || *v.Lowercase
}

func (v *Vectorizer) norm() string {
	if v.Norm == nil {
		return "l2"
	}
	return *v.Norm
}

// Transform maps text into TF-IDF weights over the frozen vocabulary.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) Features {
	if v.lowercase() {
		text = strings.ToLower(text)
	}

	var tokens []string
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if _, skip := v.stop[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}

	counts := make(map[int]float64)
	for n := v.NgramRange[0]; n <= v.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := strings.Join(tokens[i:i+n], " ")
			if idx, ok := v.Vocabulary[gram]; ok {
				counts[idx]++
			}
		}
	}

	features := make(Features, len(counts))
	for idx, tf := range counts {
		if v.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		features[idx] = tf * v.IDF[idx]
	}

	var total float64
	switch v.norm() {
	case "l2":
		for _, w := range features {
			total += w * w
		}
		total = math.Sqrt(total)
	case "l1":
		for _, w := range features {
			total += math.Abs(w)
		}
	}
	if total > 0 {
		for idx := range features {
			features[idx] /= total
		}
	}

	return features
}
