// internal/services/predict-properties/models.go
package predictproperties

import (
	"alloy-predictor/internal/common/logger"
	"alloy-predictor/internal/common/observability"
	"alloy-predictor/internal/models"
	"alloy-predictor/internal/modelstore"
)

// Input is the decoded POST /predict body. Values are kept raw so each one
// can be converted to a number individually.
type Input struct {
	Values []interface{} `json:"values"`
}

// Output is the success body of POST /predict.
type Output = models.PredictionResult

// PreflightResponse answers OPTIONS /predict when the service owns pre-flight.
type PreflightResponse struct {
	Message string `json:"message"`
}

// ModelSet provides the three models a prediction queries.
type ModelSet interface {
	YieldStrength() modelstore.Model
	TensileStrength() modelstore.Model
	Elongation() modelstore.Model
}

type ServiceDependencies struct {
	Models        ModelSet
	Logger        logger.Logger
	Observability *observability.Observability
}
