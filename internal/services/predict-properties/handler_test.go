// internal/services/predict-properties/handler_test.go
package predictproperties

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alloy-predictor/internal/common/logger"
	"alloy-predictor/internal/common/observability"
	"alloy-predictor/internal/common/validation"
	"alloy-predictor/internal/models"
	"alloy-predictor/internal/modelstore"
	"alloy-predictor/pkg/artifact"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeModel struct {
	name     string
	task     artifact.Task
	out      models.Prediction
	err      error
	calls    int
	received []models.Record
	trace    *[]string
}

func (f *fakeModel) Name() string { return f.name }
func (f *fakeModel) Task() artifact.Task { return f.task }
func (f *fakeModel) Type() artifact.ModelType { return artifact.ModelTypeLinearRegression }

func (f *fakeModel) Predict(record models.Record) (models.Prediction, error) {
	f.calls++
	f.received = append(f.received, record)
	if f.trace != nil {
		*f.trace = append(*f.trace, f.name)
	}
	if f.err != nil {
		return models.Prediction{}, f.err
	}
	return f.out, nil
}

type fakeModelSet struct {
	yield, tensile, elongation modelstore.Model
}

func (s *fakeModelSet) YieldStrength() modelstore.Model { return s.yield }
func (s *fakeModelSet) TensileStrength() modelstore.Model { return s.tensile }
func (s *fakeModelSet) Elongation() modelstore.Model { return s.elongation }

type testModels struct {
	yield, tensile, elongation *fakeModel
	trace                      []string
}

func newTestModels() *testModels {
	tm := &testModels{}
	tm.yield = &fakeModel{name: "yield", task: artifact.TaskRegression, out: models.NumberPrediction(512.5), trace: &tm.trace}
	tm.tensile = &fakeModel{name: "tensile", task: artifact.TaskRegression, out: models.NumberPrediction(734.25), trace: &tm.trace}
	tm.elongation = &fakeModel{name: "elongation", task: artifact.TaskClassification, out: models.LabelPrediction("High"), trace: &tm.trace}
	return tm
}

func (tm *testModels) set() ModelSet {
	return &fakeModelSet{yield: tm.yield, tensile: tm.tensile, elongation: tm.elongation}
}

func testDeps(t *testing.T, set ModelSet) ServiceDependencies {
	log := logger.NewTestLogger(t)
	return ServiceDependencies{
		Models: set,
		Logger: log,
		Observability: observability.New(observability.Options{
			ServiceName: "test",
			Registerer:  promclient.NewRegistry(),
			Logger:      log,
		}),
	}
}

func createTestMux(t *testing.T, config *Config, set ModelSet) *http.ServeMux {
	t.Helper()
	h, err := NewHandler(config, testDeps(t, set))
	require.NoError(t, err)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func sampleValues() []interface{} {
	return []interface{}{70.5, 0.2, 1.1, 0.4, 18.0, 8.0, 0.3, 0.05, 0.02, 0.01, 0.0, 0.0, 0.03, 0.01}
}

func post(t *testing.T, mux http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func postValues(t *testing.T, mux http.Handler, values interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"values": values})
	require.NoError(t, err)
	return post(t, mux, string(body))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// assertMatchesOutputSchema checks a successful reply against the published
// response shape.
func assertMatchesOutputSchema(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	v, err := validation.NewValidator(GetOutputSchema())
	require.NoError(t, err)
	result, err := v.Validate(decodeBody(t, rec))
	require.NoError(t, err)
	assert.True(t, result.Valid, "errors: %v", result.GetErrorMessages())
}

func loadTestStore(t *testing.T) *modelstore.Store {
	t.Helper()
	store, err := modelstore.LoadStore(modelstore.Paths{
		YieldStrength:   "../../modelstore/testdata/yield_strength_regressor.json",
		TensileStrength: "../../modelstore/testdata/tensile_strength_regressor.json",
		Elongation:      "../../modelstore/testdata/elongation_classifier.json",
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return store
}

// ==========================
// Core Functionality Tests
// ==========================

func TestPredict_Success(t *testing.T) {
	tm := newTestModels()
	mux := createTestMux(t, nil, tm.set())

	rec := postValues(t, mux, sampleValues())

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"prediction_model1": 512.5, "prediction_model2": 734.25, "prediction_model3": "High"}`, rec.Body.String())
	assert.Equal(t, []string{"yield", "tensile", "elongation"}, tm.trace)
	assertMatchesOutputSchema(t, rec)
}

func TestPredict_AllModelsReceiveZippedRecord(t *testing.T) {
	tm := newTestModels()
	mux := createTestMux(t, nil, tm.set())

	values := make([]interface{}, models.FeatureCount)
	for i := range values {
		values[i] = float64(i + 1)
	}
	rec := postValues(t, mux, values)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, m := range []*fakeModel{tm.yield, tm.tensile, tm.elongation} {
		require.Len(t, m.received, 1, m.name)
		got := m.received[0]
		for i, name := range models.FeatureNames() {
			v, ok := got.Get(name)
			require.True(t, ok)
			assert.Equal(t, float64(i+1), v, "%s: %s", m.name, name)
		}
	}
}

func TestPredict_SwappingValuesChangesRecord(t *testing.T) {
	tm := newTestModels()
	mux := createTestMux(t, nil, tm.set())

	values := sampleValues()
	require.Equal(t, http.StatusOK, postValues(t, mux, values).Code)

	values[0], values[1] = values[1], values[0]
	require.Equal(t, http.StatusOK, postValues(t, mux, values).Code)

	require.Len(t, tm.yield.received, 2)
	first, second := tm.yield.received[0], tm.yield.received[1]
	assert.Equal(t, first.Fe, second.C)
	assert.Equal(t, first.C, second.Fe)
	assert.NotEqual(t, first, second)
}

func TestPredict_NumericClassLabel(t *testing.T) {
	tm := newTestModels()
	tm.elongation.out = models.NumberPrediction(2)
	mux := createTestMux(t, nil, tm.set())

	rec := postValues(t, mux, sampleValues())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"prediction_model1": 512.5, "prediction_model2": 734.25, "prediction_model3": 2}`, rec.Body.String())
	assertMatchesOutputSchema(t, rec)
}

func TestPredict_ValueConversion(t *testing.T) {
	tm := newTestModels()
	mux := createTestMux(t, nil, tm.set())

	values := sampleValues()
	values[0] = "70.5"
	values[1] = " 0.2 "
	values[2] = true
	values[3] = false
	values[4] = nil

	rec := postValues(t, mux, values)
	require.Equal(t, http.StatusOK, rec.Code)

	got := tm.yield.received[0]
	assert.Equal(t, 70.5, got.Fe)
	assert.Equal(t, 0.2, got.C)
	assert.Equal(t, 1.0, got.Mn)
	assert.Equal(t, 0.0, got.Si)
	assert.True(t, math.IsNaN(got.Cr))
}

// ==========================
// Input Validation Tests
// ==========================

func TestPredict_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing values", `{}`},
		{"other field only", `{"value": [1,2,3]}`},
		{"null values", `{"values": null}`},
		{"string values", `{"values": "1,2,3,4,5,6,7,8,9,10,11,12,13,14"}`},
		{"object values", `{"values": {"fe": 1}}`},
		{"number values", `{"values": 14}`},
		{"empty values", `{"values": []}`},
		{"thirteen values", `{"values": [1,2,3,4,5,6,7,8,9,10,11,12,13]}`},
		{"fifteen values", `{"values": [1,2,3,4,5,6,7,8,9,10,11,12,13,14,15]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := newTestModels()
			mux := createTestMux(t, nil, tm.set())

			rec := post(t, mux, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error": "Invalid input. Please provide 14 values."}`, rec.Body.String())
			assert.Zero(t, tm.yield.calls+tm.tensile.calls+tm.elongation.calls)
		})
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestPredict_RuntimeFailures(t *testing.T) {
	values := sampleValues()
	values[6] = "abc"
	badString, _ := json.Marshal(map[string]interface{}{"values": values})

	values = sampleValues()
	values[13] = []interface{}{1.0}
	nested, _ := json.Marshal(map[string]interface{}{"values": values})

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"unparseable string", string(badString), `cannot parse "abc" as a number`},
		{"nested array", string(nested), "cannot convert an array to a number"},
		{"malformed json", `{"values": [1,2`, "failed to decode JSON object"},
		{"empty body", ``, "failed to decode JSON object"},
		{"array body", `[1,2,3,4,5,6,7,8,9,10,11,12,13,14]`, "request body must be a JSON object"},
		{"string body", `"values"`, "request body must be a JSON object"},
		{"trailing garbage", `{"values": [1,2,3,4,5,6,7,8,9,10,11,12,13,14]} garbage`, "unexpected data after JSON object"},
		{"second object", `{"values": [1,2,3,4,5,6,7,8,9,10,11,12,13,14]} {}`, "unexpected data after JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := newTestModels()
			mux := createTestMux(t, nil, tm.set())

			rec := post(t, mux, tt.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeBody(t, rec)
			assert.Contains(t, body["error"], tt.wantError)
			assert.Zero(t, tm.yield.calls)
		})
	}
}

func TestPredict_ModelFailureAbortsRemainingModels(t *testing.T) {
	tm := newTestModels()
	tm.tensile.err = errors.New("Input contains NaN")
	mux := createTestMux(t, nil, tm.set())

	rec := postValues(t, mux, sampleValues())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Input contains NaN"}`, rec.Body.String())
	assert.Equal(t, []string{"yield", "tensile"}, tm.trace)
	assert.Zero(t, tm.elongation.calls)
}

func TestPredict_NaNRejectedByRealModels(t *testing.T) {
	mux := createTestMux(t, nil, loadTestStore(t))

	values := sampleValues()
	values[4] = nil
	rec := postValues(t, mux, values)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Input contains NaN"}`, rec.Body.String())
}

func TestPredict_OverflowingPredictionIsRuntimeFailure(t *testing.T) {
	mux := createTestMux(t, nil, loadTestStore(t))

	// fe has a coefficient of 2 in the tensile model, so the dot product overflows.
	values := sampleValues()
	values[0] = 1e308
	rec := postValues(t, mux, values)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotEmpty(t, rec.Body.Bytes())
	body := decodeBody(t, rec)
	assert.Len(t, body, 1)
	assert.Contains(t, body["error"], "prediction is not finite")
}

func TestPredict_NaNPredictionStopsRemainingModels(t *testing.T) {
	tm := newTestModels()
	tm.yield.out = models.NumberPrediction(math.NaN())
	mux := createTestMux(t, nil, tm.set())

	rec := postValues(t, mux, sampleValues())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "prediction is not finite: NaN"}`, rec.Body.String())
	assert.Zero(t, tm.tensile.calls)
}

func TestPredict_RealModels(t *testing.T) {
	mux := createTestMux(t, nil, loadTestStore(t))

	rec := postValues(t, mux, []interface{}{70, 0.2, 1, 0.5, 5, 8, 0, 0, 0, 0, 0, 0, 0, 0})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"prediction_model1": 310, "prediction_model2": 259, "prediction_model3": "Medium"}`, rec.Body.String())
	assertMatchesOutputSchema(t, rec)
}

// ==========================
// Pre-flight Tests
// ==========================

func TestPreflight(t *testing.T) {
	t.Run("service owned", func(t *testing.T) {
		mux := createTestMux(t, &Config{ServicePreflight: true}, newTestModels().set())

		req := httptest.NewRequest(http.MethodOptions, "/predict", bytes.NewReader([]byte("ignored")))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message": "CORS pre-flight successful"}`, rec.Body.String())
	})

	t.Run("not registered", func(t *testing.T) {
		mux := createTestMux(t, &Config{ServicePreflight: false}, newTestModels().set())

		req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestNewHandler_RequiresModels(t *testing.T) {
	_, err := NewHandler(nil, ServiceDependencies{Logger: logger.NewNoOpLogger()})
	require.Error(t, err)
}

func TestPredict_GetNotAllowed(t *testing.T) {
	mux := createTestMux(t, nil, newTestModels().set())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
