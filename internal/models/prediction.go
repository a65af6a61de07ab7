// internal/models/prediction.go
package models

import (
	"encoding/json"
	"strconv"
)

// Prediction is a single model output: a number or a class label.
type Prediction struct {
	Number  float64
	Label   string
	IsLabel bool
}

func NumberPrediction(v float64) Prediction {
	return Prediction{Number: v}
}

func LabelPrediction(label string) Prediction {
	return Prediction{Label: label, IsLabel: true}
}

// MarshalJSON encodes labels as strings and everything else as numbers.
func (p Prediction) MarshalJSON() ([]byte, error) {
	if p.IsLabel {
		return json.Marshal(p.Label)
	}
	return json.Marshal(p.Number)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (p *Prediction) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*p = LabelPrediction(label)
		return nil
	}
	var number float64
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*p = NumberPrediction(number)
	return nil
}

func (p Prediction) String() string {
	if p.IsLabel {
		return p.Label
	}
	return strconv.FormatFloat(p.Number, 'g', -1, 64)
}

// PredictionResult holds one prediction per loaded model.
type PredictionResult struct {
	YieldStrength   Prediction `json:"prediction_model1"`
	TensileStrength Prediction `json:"prediction_model2"`
	ElongationClass Prediction `json:"prediction_model3"`
}
