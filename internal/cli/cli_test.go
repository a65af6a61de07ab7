package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================================
// Test Helper Functions
// ==========================================

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "modelstore", "testdata", name))
	require.NoError(t, err)
	return path
}

func writeConfig(t *testing.T, yield, tensile, elongation string) string {
	t.Helper()
	for _, env := range []string{"MODEL_YIELD_PATH", "MODEL_TENSILE_PATH", "MODEL_ELONGATION_PATH", "APP_PROFILE"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	body := fmt.Sprintf(`app:
  name: alloy-predictor
models:
  yield_strength_path: %q
  tensile_strength_path: %q
  elongation_path: %q
`, yield, tensile, elongation)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ==========================================
// Tests
// ==========================================

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "check-models", "health"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("profile"))
}

func TestCheckModels_Table(t *testing.T) {
	cfgPath := writeConfig(t,
		testdataPath(t, "yield_strength_regressor.json"),
		testdataPath(t, "tensile_strength_regressor.json"),
		testdataPath(t, "elongation_classifier.json"),
	)

	out, err := runCommand(t, "check-models", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SLOT")
	assert.Contains(t, out, "yield_strength")
	assert.Contains(t, out, "gradient_boosting")
	assert.Contains(t, out, "Low,Medium,High")
}

func TestCheckModels_JSON(t *testing.T) {
	cfgPath := writeConfig(t,
		testdataPath(t, "yield_strength_regressor.json"),
		testdataPath(t, "tensile_strength_regressor.json"),
		testdataPath(t, "elongation_classifier.json"),
	)

	out, err := runCommand(t, "check-models", "--config", cfgPath, "--json")
	require.NoError(t, err)

	var summaries map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 3)
	assert.Equal(t, "linear_regression", summaries["tensile_strength"]["modelType"])
	assert.Equal(t, "classification", summaries["elongation"]["task"])
}

func TestCheckModels_MissingArtifactFails(t *testing.T) {
	cfgPath := writeConfig(t,
		testdataPath(t, "yield_strength_regressor.json"),
		filepath.Join(t.TempDir(), "absent.json"),
		testdataPath(t, "elongation_classifier.json"),
	)

	_, err := runCommand(t, "check-models", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARTIFACT_NOT_FOUND")
	assert.Contains(t, err.Error(), "absent.json")
}

func TestCheckModels_WrongSlotFails(t *testing.T) {
	cfgPath := writeConfig(t,
		testdataPath(t, "elongation_classifier.json"),
		testdataPath(t, "tensile_strength_regressor.json"),
		testdataPath(t, "elongation_classifier.json"),
	)

	_, err := runCommand(t, "check-models", "--config", cfgPath)
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"status":"healthy","service":"alloy-predictor","profile":"development"}`)
		case "/ready":
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"not ready"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Run("healthy", func(t *testing.T) {
		out, err := runCommand(t, "health", "--url", srv.URL)
		require.NoError(t, err)
		assert.Contains(t, out, "healthy")
		assert.Contains(t, out, "profile development")
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCommand(t, "health", "--url", srv.URL, "--json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"healthy","service":"alloy-predictor","profile":"development"}`, out)
	})

	t.Run("not ready", func(t *testing.T) {
		_, err := runCommand(t, "health", "--url", srv.URL, "--ready")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}

func TestServe_InvalidProfileFails(t *testing.T) {
	cfgPath := writeConfig(t, "a.json", "b.json", "c.json")

	_, err := runCommand(t, "serve", "--config", cfgPath, "--profile", "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config load failed")
}

func TestServe_MissingModelFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.json")
	cfgPath := writeConfig(t, missing, missing, missing)

	_, err := runCommand(t, "serve", "--config", cfgPath)
	require.Error(t, err)
}
