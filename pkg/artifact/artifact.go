// pkg/artifact/artifact.go
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrNotFound is returned when the artifact file does not exist.
var ErrNotFound = errors.New("artifact not found")

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("artifact schema validation failed: %s", strings.Join(e.Errors, "; "))
}

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// Load reads and validates the artifact stored at path.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	art, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return art, nil
}

// Parse validates data against Schema and decodes it.
func Parse(data []byte) (*Artifact, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, &ValidationError{Errors: errs}
	}

	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &art, nil
}
