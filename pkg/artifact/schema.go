// pkg/artifact/schema.go
package artifact

// FormatVersion is the only artifact layout this package understands.
const FormatVersion = 1

type Task string

const (
	TaskRegression     Task = "regression"
	TaskClassification Task = "classification"
)

type ModelType string

const (
	ModelTypeLinearRegression   ModelType = "linear_regression"
	ModelTypeLogisticRegression ModelType = "logistic_regression"
	ModelTypeDecisionTree       ModelType = "decision_tree"
	ModelTypeRandomForest       ModelType = "random_forest"
	ModelTypeGradientBoosting   ModelType = "gradient_boosting"
)

// Artifact is the portable, JSON-encoded form of a fitted estimator.
type Artifact struct {
	FormatVersion int           `json:"format_version"`
	Name          string        `json:"name"`
	Task          Task          `json:"task"`
	ModelType     ModelType     `json:"model_type"`
	FeatureNames  []string      `json:"feature_names"`
	Classes       []interface{} `json:"classes,omitempty"`

	// linear_regression
	Intercept    float64            `json:"intercept,omitempty"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`

	// logistic_regression
	Intercepts        []float64   `json:"intercepts,omitempty"`
	CoefficientMatrix [][]float64 `json:"coefficient_matrix,omitempty"`

	// decision_tree, random_forest, gradient_boosting
	Trees        []Tree  `json:"trees,omitempty"`
	InitValue    float64 `json:"init_value,omitempty"`
	LearningRate float64 `json:"learning_rate,omitempty"`
}

// Tree is a flattened binary tree; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Left and Right are set, a leaf when both are -1.
type Node struct {
	Feature   string    `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) IsLeaf() bool {
	return n.Left == -1 && n.Right == -1
}

// Schema is the JSON Schema every artifact document must satisfy.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["format_version", "task", "model_type", "feature_names"],
  "properties": {
    "format_version": {"type": "integer", "enum": [1]},
    "name": {"type": "string"},
    "task": {"type": "string", "enum": ["regression", "classification"]},
    "model_type": {
      "type": "string",
      "enum": ["linear_regression", "logistic_regression", "decision_tree", "random_forest", "gradient_boosting"]
    },
    "feature_names": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 1,
      "uniqueItems": true
    },
    "classes": {
      "type": "array",
      "items": {"type": ["string", "number"]},
      "minItems": 2,
      "uniqueItems": true
    },
    "intercept": {"type": "number"},
    "coefficients": {"type": "object", "additionalProperties": {"type": "number"}},
    "intercepts": {"type": "array", "items": {"type": "number"}, "minItems": 1},
    "coefficient_matrix": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "array", "items": {"type": "number"}}
    },
    "trees": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/tree"}},
    "init_value": {"type": "number"},
    "learning_rate": {"type": "number", "exclusiveMinimum": 0}
  },
  "definitions": {
    "tree": {
      "type": "object",
      "required": ["nodes"],
      "properties": {
        "nodes": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/node"}}
      }
    },
    "node": {
      "type": "object",
      "required": ["left", "right"],
      "properties": {
        "feature": {"type": "string"},
        "threshold": {"type": "number"},
        "left": {"type": "integer", "minimum": -1},
        "right": {"type": "integer", "minimum": -1},
        "value": {"type": "array", "minItems": 1, "items": {"type": "number"}}
      }
    }
  }
}`
