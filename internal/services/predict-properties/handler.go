package predictproperties

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "alloy-predictor/internal/common/errors"
	apphttp "alloy-predictor/internal/common/http"
	"alloy-predictor/internal/common/logger"
	"alloy-predictor/internal/common/metrics"
	"alloy-predictor/internal/common/validation"
)

const (
	// InvalidInputMessage is returned for every request-shape failure.
	InvalidInputMessage = "Invalid input. Please provide 14 values."
	// PreflightMessage answers OPTIONS /predict in the production profile.
	PreflightMessage = "CORS pre-flight successful"
)

type Handler struct {
	config    *Config
	service   *Service
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, deps ServiceDependencies) (*Handler, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if deps.Models == nil {
		return nil, errors.New("predict-properties: models are required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	validator, err := validation.NewValidator(GetInputSchema())
	if err != nil {
		return nil, fmt.Errorf("predict-properties: %w", err)
	}

	log := deps.Logger.WithFields(map[string]interface{}{"service": ServiceName})
	return &Handler{
		config:    config,
		service:   NewService(deps, config),
		validator: validator,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}, nil
}

// Register mounts the prediction routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /predict", h.Predict)
	if h.config.ServicePreflight {
		mux.HandleFunc("OPTIONS /predict", h.Preflight)
	}
}

// Predict handles POST /predict.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	requestID := apphttp.GetRequestID(r.Context())

	input, err := h.decode(r)
	if err != nil {
		h.fail(w, err, requestID)
		return
	}

	output, err := h.service.Execute(r.Context(), input)
	if err != nil {
		h.fail(w, err, requestID)
		return
	}

	if err := apperrors.WriteJSON(w, http.StatusOK, output); err != nil {
		h.logger.WithError(err).Error("Failed to encode prediction", map[string]interface{}{
			"requestId": requestID,
		})
		metrics.PredictionsFailed.WithLabelValues(string(apperrors.ErrCodeInternal)).Inc()
		return
	}
	metrics.PredictionsCompleted.Inc()
}

// Preflight answers OPTIONS /predict regardless of the body.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, PreflightResponse{Message: PreflightMessage})
}

// decode reads the body as a JSON object and checks it against the input
// schema. Bodies that are not JSON objects are runtime failures; objects
// with a bad "values" field are input errors.
func (h *Handler) decode(r *http.Request) (*Input, error) {
	dec := json.NewDecoder(r.Body)
	var body interface{}
	if err := dec.Decode(&body); err != nil {
		return nil, malformedBody(err, "failed to decode JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, malformedBody(err, "unexpected data after JSON object")
		}
		return nil, apperrors.NewMalformedRequestError(errors.New("unexpected data after JSON object"))
	}

	doc, ok := body.(map[string]interface{})
	if !ok {
		return nil, apperrors.NewMalformedRequestError(errors.New("request body must be a JSON object"))
	}

	result, err := h.validator.Validate(doc)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidInputError(InvalidInputMessage,
			strings.Join(result.GetErrorMessages(), "; "))
	}

	values, _ := doc["values"].([]interface{})
	return &Input{Values: values}, nil
}

func malformedBody(err error, msg string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.NewMalformedRequestError(
			fmt.Errorf("request body exceeds %d bytes", maxErr.Limit))
	}
	return apperrors.NewMalformedRequestError(fmt.Errorf("%s: %w", msg, err))
}

func (h *Handler) fail(w http.ResponseWriter, err error, requestID string) {
	stdErr := h.errors.HandleHTTPError(w, err, map[string]interface{}{
		"requestId": requestID,
	})
	metrics.PredictionsFailed.WithLabelValues(string(stdErr.Code)).Inc()
}
