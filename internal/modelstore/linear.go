package modelstore

import (
	"fmt"

	"alloy-predictor/internal/models"
	"alloy-predictor/pkg/artifact"
)

type linearRegressor struct {
	*base
	intercept float64
	weights   []float64
}

func compileLinear(b *base, art *artifact.Artifact) (Model, error) {
	if b.task != artifact.TaskRegression {
		return nil, fmt.Errorf("linear_regression supports regression only")
	}

	position := make(map[string]int, len(art.FeatureNames))
	for i, name := range art.FeatureNames {
		position[name] = i
	}

	weights := make([]float64, len(art.FeatureNames))
	for name, w := range art.Coefficients {
		i, ok := position[name]
		if !ok {
			return nil, fmt.Errorf("coefficient for unknown feature %q", name)
		}
		weights[i] = w
	}

	return &linearRegressor{base: b, intercept: art.Intercept, weights: weights}, nil
}

func (m *linearRegressor) Predict(record models.Record) (models.Prediction, error) {
	x, err := m.row(record)
	if err != nil {
		return models.Prediction{}, err
	}
	return models.NumberPrediction(dot(m.weights, x) + m.intercept), nil
}

type logisticClassifier struct {
	*base
	intercepts []float64
	weights    [][]float64
}

func compileLogistic(b *base, art *artifact.Artifact) (Model, error) {
	if b.task != artifact.TaskClassification {
		return nil, fmt.Errorf("logistic_regression supports classification only")
	}

	rows := b.classCount()
	if rows == 2 {
		rows = 1
	}
	if len(art.CoefficientMatrix) != rows || len(art.Intercepts) != rows {
		return nil, fmt.Errorf("logistic_regression with %d classes needs %d coefficient rows and intercepts, got %d and %d",
			b.classCount(), rows, len(art.CoefficientMatrix), len(art.Intercepts))
	}
	for i, row := range art.CoefficientMatrix {
		if len(row) != len(art.FeatureNames) {
			return nil, fmt.Errorf("coefficient row %d has %d columns, expected %d", i, len(row), len(art.FeatureNames))
		}
	}

	return &logisticClassifier{base: b, intercepts: art.Intercepts, weights: art.CoefficientMatrix}, nil
}

func (m *logisticClassifier) Predict(record models.Record) (models.Prediction, error) {
	x, err := m.row(record)
	if err != nil {
		return models.Prediction{}, err
	}

	scores := make([]float64, len(m.weights))
	for i, w := range m.weights {
		scores[i] = dot(w, x) + m.intercepts[i]
	}

	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.class(1), nil
		}
		return m.class(0), nil
	}
	return m.class(argmax(scores)), nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
