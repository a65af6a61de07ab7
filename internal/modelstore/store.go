// internal/modelstore/store.go
package modelstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	apperrors "alloy-predictor/internal/common/errors"
	"alloy-predictor/internal/common/logger"
	"alloy-predictor/pkg/artifact"
)

// Slot names the role a model fills in the store.
type Slot string

const (
	SlotYieldStrength   Slot = "yield_strength"
	SlotTensileStrength Slot = "tensile_strength"
	SlotElongation      Slot = "elongation"
)

// Slots lists the store roles in response order.
var Slots = []Slot{SlotYieldStrength, SlotTensileStrength, SlotElongation}

func (s Slot) expectedTask() artifact.Task {
	if s == SlotElongation {
		return artifact.TaskClassification
	}
	return artifact.TaskRegression
}

// Paths locates the artifact for each slot.
type Paths struct {
	YieldStrength   string
	TensileStrength string
	Elongation      string
}

func (p Paths) forSlot(slot Slot) string {
	switch slot {
	case SlotYieldStrength:
		return p.YieldStrength
	case SlotTensileStrength:
		return p.TensileStrength
	default:
		return p.Elongation
	}
}

// Store holds the three models for the life of the process. It is never
// mutated after construction.
type Store struct {
	yieldStrength   Model
	tensileStrength Model
	elongation      Model
}

// NewStore checks each model against its slot's role.
func NewStore(yieldStrength, tensileStrength, elongation Model) (*Store, error) {
	s := &Store{
		yieldStrength:   yieldStrength,
		tensileStrength: tensileStrength,
		elongation:      elongation,
	}
	for _, slot := range Slots {
		m := s.Model(slot)
		if m == nil {
			return nil, apperrors.NewModelLoadFailedError(string(slot), errors.New("model is nil"))
		}
		if m.Task() != slot.expectedTask() {
			return nil, apperrors.NewModelLoadFailedError(string(slot),
				fmt.Errorf("expected a %s model, got %s", slot.expectedTask(), m.Task())).
				WithMetadata("model", m.Name())
		}
	}
	return s, nil
}

// LoadStore loads all three artifacts. Any failure is fatal to startup.
func LoadStore(paths Paths, log logger.Logger) (*Store, error) {
	loaded := make(map[Slot]Model, len(Slots))
	for _, slot := range Slots {
		path := paths.forSlot(slot)
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		loaded[slot] = m

		summary := Describe(m)
		log.Info("Model loaded", map[string]interface{}{
			"slot":      string(slot),
			"path":      path,
			"name":      summary.Name,
			"task":      string(summary.Task),
			"modelType": string(summary.ModelType),
			"trees":     summary.Trees,
		})
	}
	return NewStore(loaded[SlotYieldStrength], loaded[SlotTensileStrength], loaded[SlotElongation])
}

// Load reads, validates and compiles a single artifact.
func Load(path string) (Model, error) {
	art, err := artifact.Load(path)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, apperrors.NewArtifactNotFoundError(path, err)
		}
		return nil, apperrors.NewArtifactInvalidError(path, err)
	}

	if art.Name == "" {
		art.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	m, err := Compile(art)
	if err != nil {
		return nil, apperrors.NewArtifactInvalidError(path, err)
	}
	return m, nil
}

func (s *Store) YieldStrength() Model { return s.yieldStrength }

func (s *Store) TensileStrength() Model { return s.tensileStrength }

func (s *Store) Elongation() Model { return s.elongation }

// Model returns the model filling slot.
func (s *Store) Model(slot Slot) Model {
	switch slot {
	case SlotYieldStrength:
		return s.yieldStrength
	case SlotTensileStrength:
		return s.tensileStrength
	case SlotElongation:
		return s.elongation
	default:
		return nil
	}
}

// Summaries describes every loaded model, keyed by slot.
func (s *Store) Summaries() map[Slot]Summary {
	out := make(map[Slot]Summary, len(Slots))
	for _, slot := range Slots {
		out[slot] = Describe(s.Model(slot))
	}
	return out
}
