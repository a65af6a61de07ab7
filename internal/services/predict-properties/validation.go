// internal/services/predict-properties/validation.go
package predictproperties

import (
	"strings"

	"alloy-predictor/internal/common/validation"
	"alloy-predictor/internal/models"
)

// GetInputSchema describes the accepted request shape. Item types are not
// constrained here; conversion failures surface later as runtime errors.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"values"},
		Properties: map[string]validation.Property{
			"values": {
				Type:        "array",
				Description: "Alloy composition in the order " + strings.Join(models.FeatureNames(), ", "),
				MinItems:    validation.IntPtr(models.FeatureCount),
				MaxItems:    validation.IntPtr(models.FeatureCount),
			},
		},
	}
}

// GetOutputSchema describes a successful /predict reply.
func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"prediction_model1", "prediction_model2", "prediction_model3"},
		Properties: map[string]validation.Property{
			"prediction_model1": {
				Type:        "number",
				Description: "Predicted yield strength",
			},
			"prediction_model2": {
				Type:        "number",
				Description: "Predicted tensile strength",
			},
			"prediction_model3": {
				Description: "Predicted elongation class label",
			},
		},
		AdditionalProperties: validation.BoolPtr(false),
	}
}
