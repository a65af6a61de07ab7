package predictproperties

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "alloy-predictor/internal/common/errors"
	"alloy-predictor/internal/common/logger"
	"alloy-predictor/internal/common/observability"
	"alloy-predictor/internal/models"
	"alloy-predictor/internal/modelstore"
)

// ServiceName labels the prediction operation in logs and spans.
const ServiceName = "predict-properties"

type Service struct {
	config *Config
	models ModelSet
	logger logger.Logger
	obs    *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	obs := deps.Observability
	if obs == nil {
		obs = observability.New(observability.Options{ServiceName: ServiceName, Logger: log})
	}

	return &Service{
		config: config,
		models: deps.Models,
		logger: log.WithFields(map[string]interface{}{"service": ServiceName}),
		obs:    obs,
	}
}

// Execute converts the raw values, builds the named record and queries the
// three models in order. The first failure aborts the request.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := s.obs.StartSpan(ctx, "predict", attribute.Int("values", len(input.Values)))
	defer span.End()

	if len(input.Values) != models.FeatureCount {
		return nil, apperrors.NewInvalidInputError(InvalidInputMessage,
			fmt.Sprintf("got %d values", len(input.Values)))
	}

	values, err := ConvertValues(input.Values)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	record, err := models.NewRecord(values)
	if err != nil {
		var countErr *models.FeatureCountError
		if errors.As(err, &countErr) {
			return nil, apperrors.NewInvalidInputError(InvalidInputMessage, err.Error())
		}
		return nil, apperrors.NewInternalError(err)
	}

	yield, err := s.predict(ctx, modelstore.SlotYieldStrength, s.models.YieldStrength(), record)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	tensile, err := s.predict(ctx, modelstore.SlotTensileStrength, s.models.TensileStrength(), record)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	elongation, err := s.predict(ctx, modelstore.SlotElongation, s.models.Elongation(), record)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Debug("Prediction completed", map[string]interface{}{
		"yieldStrength":   yield.String(),
		"tensileStrength": tensile.String(),
		"elongation":      elongation.String(),
	})

	return &Output{
		YieldStrength:   yield,
		TensileStrength: tensile,
		ElongationClass: elongation,
	}, nil
}

func (s *Service) predict(ctx context.Context, slot modelstore.Slot, model modelstore.Model, record models.Record) (models.Prediction, error) {
	ctx, span := s.obs.StartSpan(ctx, "model.predict",
		attribute.String("slot", string(slot)),
		attribute.String("model", model.Name()),
		attribute.String("model_type", string(model.Type())),
	)
	defer span.End()

	start := time.Now()
	prediction, err := model.Predict(record)
	if err == nil && !prediction.IsLabel && (math.IsNaN(prediction.Number) || math.IsInf(prediction.Number, 0)) {
		err = fmt.Errorf("prediction is not finite: %s", prediction.String())
	}
	s.obs.RecordInference(ctx, string(slot), string(model.Type()), time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Prediction{}, apperrors.NewInferenceFailedError(model.Name(), err)
	}
	return prediction, nil
}

// ConvertValues turns decoded JSON values into numbers: numbers as-is,
// numeric strings parsed, booleans as 0/1 and null as NaN.
func ConvertValues(raw []interface{}) ([]float64, error) {
	names := models.FeatureNames()
	values := make([]float64, len(raw))
	for i, v := range raw {
		f, err := toFloat(v)
		if err != nil {
			feature := fmt.Sprintf("#%d", i)
			if i < len(names) {
				feature = names[i]
			}
			return nil, apperrors.NewFeatureConversionError(feature, err)
		}
		values[i] = f
	}
	return values, nil
}

func toFloat(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case nil:
		return math.NaN(), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", val)
		}
		return f, nil
	case []interface{}:
		return 0, errors.New("cannot convert an array to a number")
	case map[string]interface{}:
		return 0, errors.New("cannot convert an object to a number")
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", v)
	}
}
