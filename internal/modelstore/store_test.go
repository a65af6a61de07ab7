package modelstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "alloy-predictor/internal/common/errors"
	"alloy-predictor/internal/common/logger"
)

func fixturePaths() Paths {
	return Paths{
		YieldStrength:   fixture("yield_strength_regressor.json"),
		TensileStrength: fixture("tensile_strength_regressor.json"),
		Elongation:      fixture("elongation_classifier.json"),
	}
}

func TestLoadStore_Success(t *testing.T) {
	store, err := LoadStore(fixturePaths(), logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "yield_strength_regressor", store.YieldStrength().Name())
	assert.Equal(t, "tensile_strength_regressor", store.TensileStrength().Name())
	assert.Equal(t, "elongation_classifier", store.Elongation().Name())

	summaries := store.Summaries()
	require.Len(t, summaries, 3)
	assert.Equal(t, 2, summaries[SlotYieldStrength].Trees)
	assert.Equal(t, []string{"Low", "Medium", "High"}, summaries[SlotElongation].Classes)
}

func TestLoadStore_MissingArtifact(t *testing.T) {
	paths := fixturePaths()
	paths.TensileStrength = fixture("missing.json")

	store, err := LoadStore(paths, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.Nil(t, store)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeArtifactNotFound))
}

func TestLoadStore_WrongRole(t *testing.T) {
	tests := []struct {
		name  string
		paths func() Paths
		slot  string
	}{
		{
			name: "classifier in regression slot",
			paths: func() Paths {
				p := fixturePaths()
				p.YieldStrength = fixture("elongation_classifier.json")
				return p
			},
			slot: "yield_strength",
		},
		{
			name: "regressor in classification slot",
			paths: func() Paths {
				p := fixturePaths()
				p.Elongation = fixture("decision_tree_regressor.json")
				return p
			},
			slot: "elongation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadStore(tt.paths(), logger.NewNoOpLogger())
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeModelLoadFailed))
			assert.Contains(t, err.Error(), tt.slot)
		})
	}
}

func TestNewStore_NilModel(t *testing.T) {
	m := loadFixture(t, "yield_strength_regressor.json")
	_, err := NewStore(m, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeModelLoadFailed))
}

func TestStore_ModelBySlot(t *testing.T) {
	store, err := LoadStore(fixturePaths(), logger.NewNoOpLogger())
	require.NoError(t, err)

	assert.Same(t, store.YieldStrength(), store.Model(SlotYieldStrength))
	assert.Same(t, store.TensileStrength(), store.Model(SlotTensileStrength))
	assert.Same(t, store.Elongation(), store.Model(SlotElongation))
	assert.Nil(t, store.Model(Slot("unknown")))
}
