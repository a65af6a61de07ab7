// Package modelstore loads the pre-trained models the prediction service queries.
package modelstore

import (
	"fmt"
	"sort"

	"alloy-predictor/internal/models"
	"alloy-predictor/pkg/artifact"
)

// Model is a fitted estimator that maps one record to one prediction.
// Implementations are immutable after construction and safe for concurrent use.
type Model interface {
	Name() string
	Task() artifact.Task
	Type() artifact.ModelType
	Predict(record models.Record) (models.Prediction, error)
}

// Summary describes a loaded model for logs and the check-models command.
type Summary struct {
	Name      string             `json:"name"`
	Task      artifact.Task      `json:"task"`
	ModelType artifact.ModelType `json:"modelType"`
	Classes   []string           `json:"classes,omitempty"`
	Trees     int                `json:"trees,omitempty"`
}

// base carries what every compiled model needs: identity and column layout.
type base struct {
	name      string
	task      artifact.Task
	modelType artifact.ModelType
	// columns[i] is the record position of the artifact's i-th feature.
	columns []int
	classes []models.Prediction
}

func (b *base) Name() string { return b.name }

func (b *base) Task() artifact.Task { return b.task }

func (b *base) Type() artifact.ModelType { return b.modelType }

func (b *base) classCount() int { return len(b.classes) }

func (b *base) class(i int) models.Prediction { return b.classes[i] }

// row projects a record onto the artifact's column order.
func (b *base) row(record models.Record) ([]float64, error) {
	if err := record.CheckFinite(); err != nil {
		return nil, err
	}
	values := record.Values()
	x := make([]float64, len(b.columns))
	for i, col := range b.columns {
		x[i] = values[col]
	}
	return x, nil
}

func (b *base) summary() Summary {
	s := Summary{Name: b.name, Task: b.task, ModelType: b.modelType}
	for _, c := range b.classes {
		s.Classes = append(s.Classes, c.String())
	}
	return s
}

// Compile builds a Model from a validated artifact.
func Compile(art *artifact.Artifact) (Model, error) {
	b, err := newBase(art)
	if err != nil {
		return nil, err
	}

	switch art.ModelType {
	case artifact.ModelTypeLinearRegression:
		return compileLinear(b, art)
	case artifact.ModelTypeLogisticRegression:
		return compileLogistic(b, art)
	case artifact.ModelTypeDecisionTree:
		if len(art.Trees) != 1 {
			return nil, fmt.Errorf("decision_tree requires exactly one tree, got %d", len(art.Trees))
		}
		return compileForest(b, art)
	case artifact.ModelTypeRandomForest:
		return compileForest(b, art)
	case artifact.ModelTypeGradientBoosting:
		return compileBoosting(b, art)
	default:
		return nil, fmt.Errorf("unsupported model type %q", art.ModelType)
	}
}

// Describe returns the summary of a model built by this package.
func Describe(m Model) Summary {
	type summarizer interface{ summary() Summary }
	if s, ok := m.(summarizer); ok {
		return s.summary()
	}
	return Summary{Name: m.Name(), Task: m.Task(), ModelType: m.Type()}
}

func newBase(art *artifact.Artifact) (*base, error) {
	if err := checkFeatureNames(art.FeatureNames); err != nil {
		return nil, err
	}

	columns := make([]int, len(art.FeatureNames))
	for i, name := range art.FeatureNames {
		idx, _ := models.FeatureIndex(name)
		columns[i] = idx
	}

	b := &base{
		name:      art.Name,
		task:      art.Task,
		modelType: art.ModelType,
		columns:   columns,
	}

	switch art.Task {
	case artifact.TaskClassification:
		classes, err := parseClasses(art.Classes)
		if err != nil {
			return nil, err
		}
		b.classes = classes
	case artifact.TaskRegression:
		if len(art.Classes) > 0 {
			return nil, fmt.Errorf("regression artifact must not declare classes")
		}
	default:
		return nil, fmt.Errorf("unsupported task %q", art.Task)
	}
	return b, nil
}

// checkFeatureNames requires the artifact to be fitted on exactly the known features.
func checkFeatureNames(names []string) error {
	if len(names) != models.FeatureCount {
		return fmt.Errorf("artifact declares %d features, expected %d", len(names), models.FeatureCount)
	}

	seen := make(map[string]bool, len(names))
	var unknown []string
	for _, name := range names {
		if _, ok := models.FeatureIndex(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		if seen[name] {
			return fmt.Errorf("feature %q declared twice", name)
		}
		seen[name] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("feature names unseen at fit time: %v", unknown)
	}
	return nil
}

func parseClasses(raw []interface{}) ([]models.Prediction, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("classification artifact needs at least 2 classes, got %d", len(raw))
	}
	classes := make([]models.Prediction, len(raw))
	for i, c := range raw {
		switch v := c.(type) {
		case string:
			classes[i] = models.LabelPrediction(v)
		case float64:
			classes[i] = models.NumberPrediction(v)
		default:
			return nil, fmt.Errorf("class %d has unsupported type %T", i, c)
		}
	}
	return classes, nil
}

// argmax returns the first index holding the largest value.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
