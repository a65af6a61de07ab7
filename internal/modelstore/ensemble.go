package modelstore

import (
	"fmt"

	"alloy-predictor/internal/models"
	"alloy-predictor/pkg/artifact"
)

// forestRegressor averages tree outputs; a decision tree is a forest of one.
type forestRegressor struct {
	*base
	trees []*tree
}

// forestClassifier averages per-tree class distributions and takes the argmax.
type forestClassifier struct {
	*base
	trees []*tree
}

func compileForest(b *base, art *artifact.Artifact) (Model, error) {
	switch b.task {
	case artifact.TaskRegression:
		trees, err := compileTrees(art.Trees, art.FeatureNames, 1)
		if err != nil {
			return nil, err
		}
		return &forestRegressor{base: b, trees: trees}, nil
	default:
		trees, err := compileTrees(art.Trees, art.FeatureNames, b.classCount())
		if err != nil {
			return nil, err
		}
		return &forestClassifier{base: b, trees: trees}, nil
	}
}

func (m *forestRegressor) Predict(record models.Record) (models.Prediction, error) {
	x, err := m.row(record)
	if err != nil {
		return models.Prediction{}, err
	}

	var sum float64
	for _, t := range m.trees {
		sum += t.leaf(x)[0]
	}
	return models.NumberPrediction(sum / float64(len(m.trees))), nil
}

func (m *forestRegressor) summary() Summary {
	s := m.base.summary()
	s.Trees = len(m.trees)
	return s
}

func (m *forestClassifier) Predict(record models.Record) (models.Prediction, error) {
	x, err := m.row(record)
	if err != nil {
		return models.Prediction{}, err
	}

	proba := make([]float64, m.classCount())
	for _, t := range m.trees {
		weights := t.leaf(x)
		var total float64
		for _, w := range weights {
			total += w
		}
		if total <= 0 {
			continue
		}
		for i, w := range weights {
			proba[i] += w / total
		}
	}
	return m.class(argmax(proba)), nil
}

func (m *forestClassifier) summary() Summary {
	s := m.base.summary()
	s.Trees = len(m.trees)
	return s
}

// boostedRegressor adds scaled tree outputs to an initial estimate.
type boostedRegressor struct {
	*base
	trees        []*tree
	initValue    float64
	learningRate float64
}

func compileBoosting(b *base, art *artifact.Artifact) (Model, error) {
	if b.task != artifact.TaskRegression {
		return nil, fmt.Errorf("gradient_boosting supports regression only")
	}
	if art.LearningRate <= 0 {
		return nil, fmt.Errorf("gradient_boosting requires a positive learning_rate")
	}

	trees, err := compileTrees(art.Trees, art.FeatureNames, 1)
	if err != nil {
		return nil, err
	}
	return &boostedRegressor{
		base:         b,
		trees:        trees,
		initValue:    art.InitValue,
		learningRate: art.LearningRate,
	}, nil
}

func (m *boostedRegressor) Predict(record models.Record) (models.Prediction, error) {
	x, err := m.row(record)
	if err != nil {
		return models.Prediction{}, err
	}

	sum := m.initValue
	for _, t := range m.trees {
		sum += m.learningRate * t.leaf(x)[0]
	}
	return models.NumberPrediction(sum), nil
}

func (m *boostedRegressor) summary() Summary {
	s := m.base.summary()
	s.Trees = len(m.trees)
	return s
}
