package model

import (
	"fmt"
	"math"
)

// Classifier is a frozen binary logistic regression loaded from an artifact.
type Classifier struct {
	Type      string    `json:"type"`
	Classes   []int     `json:"classes"`
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (c *Classifier) validate(dim int) error {
	if c.Type != "" && c.Type != "logistic_regression" {
		return fmt.Errorf("unsupported classifier type %q", c.Type)
	}
	if len(c.Classes) != 2 {
		return fmt.Errorf("expected 2 classes, got %d", len(c.Classes))
	}
	if len(c.Coef) != dim {
		return fmt.Errorf("coef length %d does not match feature dimension %d", len(c.Coef), dim)
	}
	return nil
}

// PredictProba returns the probability of each class, in Classes order.
func (c *Classifier) PredictProba(x Features) ([2]float64, error) {
	z := c.Intercept
	for idx, w := range x {
		z += c.Coef[idx] * w
	}
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return [2]float64{}, fmt.Errorf("%w: non-finite decision score", ErrInference)
	}
	p := 1 / (1 + math.Exp(-z))
	return [2]float64{1 - p, p}, nil
}

// Predict returns the predicted class and the class probabilities.
func (c *Classifier) Predict(x Features) (int, [2]float64, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return 0, proba, err
	}
	if proba[1] > 0.5 {
		return c.Classes[1], proba, nil
	}
	return c.Classes[0], proba, nil
}
